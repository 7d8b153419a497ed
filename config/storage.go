// Persistent configuration record.
//
// The record is encoded field by field in a fixed little-endian layout
// so no struct memory layout assumptions leak into flash. It starts
// with a magic number and version and ends with a CRC32 over every
// preceding byte; a record failing any of those checks is rejected and
// the caller falls back to defaults.

package config

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
	"math"
)

const (
	// ConfigMagic is "CFG1" in little-endian byte order.
	ConfigMagic uint32 = 0x31474643
	// ConfigVersion is bumped on any layout change.
	ConfigVersion uint16 = 1
)

// storedConfigSize is the exact encoded size of a StoredConfig,
// including the magic/version header and the trailing CRC32.
const storedConfigSize = 112

var (
	ErrTruncated  = errors.New("config: record shorter than expected")
	ErrBadMagic   = errors.New("config: bad magic number")
	ErrBadVersion = errors.New("config: unsupported version")
	ErrBadCRC     = errors.New("config: CRC mismatch")
)

// StoredConfig is the full set of persisted tunables.
type StoredConfig struct {
	SpeedKp    float64
	SpeedKi    float64
	MaxVoltage float64
	VDCBus     float64

	PolePairs uint8
	MaxDuty   uint16

	SpeedFilterAlpha    float64
	HallAngleOffset     float64
	EnableInterpolation bool

	CalibrationOffset   float64
	CalibrationInversed bool
	CalibrationValid    bool

	OpenLoopInitialRPM   float64
	OpenLoopTargetRPM    float64
	OpenLoopAcceleration float64
	OpenLoopDutyRatio    uint16

	PWMFrequency uint32
	PWMDeadTime  uint16

	CANBitrate uint32

	ControlPeriodUS uint32
}

// DefaultConfig returns the compiled-in defaults.
func DefaultConfig() StoredConfig {
	return StoredConfig{
		SpeedKp:              DefaultSpeedKp,
		SpeedKi:              DefaultSpeedKi,
		MaxVoltage:           DefaultMaxVoltage,
		VDCBus:               DefaultVDCBus,
		PolePairs:            DefaultPolePairs,
		MaxDuty:              DefaultMaxDuty,
		SpeedFilterAlpha:     DefaultSpeedFilterAlpha,
		EnableInterpolation:  true,
		OpenLoopInitialRPM:   DefaultOpenLoopInitialRPM,
		OpenLoopTargetRPM:    DefaultOpenLoopTargetRPM,
		OpenLoopAcceleration: DefaultOpenLoopAcceleration,
		OpenLoopDutyRatio:    DefaultOpenLoopDutyRatio,
		PWMFrequency:         DefaultPWMFrequency,
		PWMDeadTime:          DefaultPWMDeadTime,
		CANBitrate:           DefaultCANBitrate,
		ControlPeriodUS:      DefaultControlPeriodUS,
	}
}

type fieldWriter struct {
	buf []byte
	pos int
}

func (w *fieldWriter) u8(v uint8) {
	w.buf[w.pos] = v
	w.pos++
}

func (w *fieldWriter) u16(v uint16) {
	binary.LittleEndian.PutUint16(w.buf[w.pos:], v)
	w.pos += 2
}

func (w *fieldWriter) u32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[w.pos:], v)
	w.pos += 4
}

func (w *fieldWriter) f64(v float64) {
	binary.LittleEndian.PutUint64(w.buf[w.pos:], math.Float64bits(v))
	w.pos += 8
}

func (w *fieldWriter) flag(v bool) {
	if v {
		w.u8(1)
	} else {
		w.u8(0)
	}
}

type fieldReader struct {
	buf []byte
	pos int
}

func (r *fieldReader) u8() uint8 {
	v := r.buf[r.pos]
	r.pos++
	return v
}

func (r *fieldReader) u16() uint16 {
	v := binary.LittleEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v
}

func (r *fieldReader) u32() uint32 {
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v
}

func (r *fieldReader) f64() float64 {
	v := math.Float64frombits(binary.LittleEndian.Uint64(r.buf[r.pos:]))
	r.pos += 8
	return v
}

func (r *fieldReader) flag() bool {
	return r.u8() != 0
}

// MarshalBinary encodes the record into its fixed little-endian layout
// with the trailing CRC32.
func (c *StoredConfig) MarshalBinary() ([]byte, error) {
	w := &fieldWriter{buf: make([]byte, storedConfigSize)}

	w.u32(ConfigMagic)
	w.u16(ConfigVersion)

	w.f64(c.SpeedKp)
	w.f64(c.SpeedKi)
	w.f64(c.MaxVoltage)
	w.f64(c.VDCBus)
	w.u8(c.PolePairs)
	w.u16(c.MaxDuty)
	w.f64(c.SpeedFilterAlpha)
	w.f64(c.HallAngleOffset)
	w.flag(c.EnableInterpolation)
	w.f64(c.CalibrationOffset)
	w.flag(c.CalibrationInversed)
	w.flag(c.CalibrationValid)
	w.f64(c.OpenLoopInitialRPM)
	w.f64(c.OpenLoopTargetRPM)
	w.f64(c.OpenLoopAcceleration)
	w.u16(c.OpenLoopDutyRatio)
	w.u32(c.PWMFrequency)
	w.u16(c.PWMDeadTime)
	w.u32(c.CANBitrate)
	w.u32(c.ControlPeriodUS)

	crc := crc32.ChecksumIEEE(w.buf[:w.pos])
	w.u32(crc)

	return w.buf, nil
}

// UnmarshalBinary decodes and validates a stored record. The magic,
// version and CRC are checked before any field is accepted.
func (c *StoredConfig) UnmarshalBinary(data []byte) error {
	if len(data) < storedConfigSize {
		return ErrTruncated
	}
	data = data[:storedConfigSize]

	wantCRC := binary.LittleEndian.Uint32(data[storedConfigSize-4:])
	if crc32.ChecksumIEEE(data[:storedConfigSize-4]) != wantCRC {
		return ErrBadCRC
	}

	r := &fieldReader{buf: data}
	if r.u32() != ConfigMagic {
		return ErrBadMagic
	}
	if r.u16() != ConfigVersion {
		return ErrBadVersion
	}

	c.SpeedKp = r.f64()
	c.SpeedKi = r.f64()
	c.MaxVoltage = r.f64()
	c.VDCBus = r.f64()
	c.PolePairs = r.u8()
	c.MaxDuty = r.u16()
	c.SpeedFilterAlpha = r.f64()
	c.HallAngleOffset = r.f64()
	c.EnableInterpolation = r.flag()
	c.CalibrationOffset = r.f64()
	c.CalibrationInversed = r.flag()
	c.CalibrationValid = r.flag()
	c.OpenLoopInitialRPM = r.f64()
	c.OpenLoopTargetRPM = r.f64()
	c.OpenLoopAcceleration = r.f64()
	c.OpenLoopDutyRatio = r.u16()
	c.PWMFrequency = r.u32()
	c.PWMDeadTime = r.u16()
	c.CANBitrate = r.u32()
	c.ControlPeriodUS = r.u32()

	return nil
}
