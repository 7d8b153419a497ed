// Payload encoders and decoders for every frame ID. All multi-byte
// values are little-endian; floats travel as IEEE-754 binary32.

package protocol

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrShortPayload is returned when a payload is shorter than its
// frame's fixed layout requires.
var ErrShortPayload = errors.New("protocol: payload too short")

func putF32(buf []byte, v float32) {
	binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
}

func getF32(buf []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf))
}

// EncodeSpeedCommand builds the payload for IDSpeedCommand.
func EncodeSpeedCommand(rpm float32) []byte {
	buf := make([]byte, 4)
	putF32(buf, rpm)
	return buf
}

// ParseSpeedCommand decodes an IDSpeedCommand payload.
func ParseSpeedCommand(data []byte) (float32, error) {
	if len(data) < 4 {
		return 0, ErrShortPayload
	}
	return getF32(data), nil
}

// EncodePIGains builds the payload for IDPIGains.
func EncodePIGains(kp, ki float32) []byte {
	buf := make([]byte, 8)
	putF32(buf[0:], kp)
	putF32(buf[4:], ki)
	return buf
}

// ParsePIGains decodes an IDPIGains payload.
func ParsePIGains(data []byte) (kp, ki float32, err error) {
	if len(data) < 8 {
		return 0, 0, ErrShortPayload
	}
	return getF32(data[0:]), getF32(data[4:]), nil
}

// EncodeMotorEnable builds the payload for IDMotorEnable.
func EncodeMotorEnable(enable bool) []byte {
	if enable {
		return []byte{1}
	}
	return []byte{0}
}

// ParseMotorEnable decodes an IDMotorEnable payload. Any nonzero byte
// enables the motor.
func ParseMotorEnable(data []byte) (bool, error) {
	if len(data) < 1 {
		return false, ErrShortPayload
	}
	return data[0] != 0, nil
}

// EncodeStartCalibration builds the payload for IDStartCalibration.
// torquePercent is the drive strength 0-100.
func EncodeStartCalibration(torquePercent uint8) []byte {
	return []byte{torquePercent}
}

// ParseStartCalibration decodes an IDStartCalibration payload. The
// torque byte is optional; ok is false when it is absent and the
// receiver should use its default.
func ParseStartCalibration(data []byte) (torquePercent uint8, ok bool) {
	if len(data) < 1 {
		return 0, false
	}
	return data[0], true
}

// EncodeMotorStatus builds the payload for IDMotorStatus.
func EncodeMotorStatus(speedRPM, electricalAngle float32) []byte {
	buf := make([]byte, 8)
	putF32(buf[0:], speedRPM)
	putF32(buf[4:], electricalAngle)
	return buf
}

// ParseMotorStatus decodes an IDMotorStatus payload.
func ParseMotorStatus(data []byte) (speedRPM, electricalAngle float32, err error) {
	if len(data) < 8 {
		return 0, 0, ErrShortPayload
	}
	return getF32(data[0:]), getF32(data[4:]), nil
}

// Voltage status flag bits.
const (
	VoltageFlagOvervoltage  = 1 << 0
	VoltageFlagUndervoltage = 1 << 1
)

// EncodeVoltageStatus builds the payload for IDVoltageStatus.
func EncodeVoltageStatus(voltage float32, overvoltage, undervoltage bool) []byte {
	buf := make([]byte, 5)
	putF32(buf[0:], voltage)
	if overvoltage {
		buf[4] |= VoltageFlagOvervoltage
	}
	if undervoltage {
		buf[4] |= VoltageFlagUndervoltage
	}
	return buf
}

// ParseVoltageStatus decodes an IDVoltageStatus payload.
func ParseVoltageStatus(data []byte) (voltage float32, overvoltage, undervoltage bool, err error) {
	if len(data) < 5 {
		return 0, false, false, ErrShortPayload
	}
	voltage = getF32(data[0:])
	overvoltage = data[4]&VoltageFlagOvervoltage != 0
	undervoltage = data[4]&VoltageFlagUndervoltage != 0
	return voltage, overvoltage, undervoltage, nil
}

// EncodeConfigStatus builds the payload for IDConfigStatus.
func EncodeConfigStatus(version uint16, crcValid bool) []byte {
	buf := make([]byte, 3)
	binary.LittleEndian.PutUint16(buf, version)
	if crcValid {
		buf[2] = 1
	}
	return buf
}

// ParseConfigStatus decodes an IDConfigStatus payload.
func ParseConfigStatus(data []byte) (version uint16, crcValid bool, err error) {
	if len(data) < 3 {
		return 0, false, ErrShortPayload
	}
	return binary.LittleEndian.Uint16(data), data[2] != 0, nil
}

// EncodeCalibrationStatus builds the payload for IDCalibrationStatus.
func EncodeCalibrationStatus(electricalOffset float32, directionInversed, success bool) []byte {
	buf := make([]byte, 6)
	putF32(buf[0:], electricalOffset)
	if directionInversed {
		buf[4] = 1
	}
	if success {
		buf[5] = 1
	}
	return buf
}

// ParseCalibrationStatus decodes an IDCalibrationStatus payload.
func ParseCalibrationStatus(data []byte) (electricalOffset float32, directionInversed, success bool, err error) {
	if len(data) < 6 {
		return 0, false, false, ErrShortPayload
	}
	return getF32(data[0:]), data[4] != 0, data[5] != 0, nil
}

// EncodeMotorVoltageParams builds the payload for IDMotorVoltageParams.
func EncodeMotorVoltageParams(maxVoltage, vdcBus float32) []byte {
	buf := make([]byte, 8)
	putF32(buf[0:], maxVoltage)
	putF32(buf[4:], vdcBus)
	return buf
}

// ParseMotorVoltageParams decodes an IDMotorVoltageParams payload.
func ParseMotorVoltageParams(data []byte) (maxVoltage, vdcBus float32, err error) {
	if len(data) < 8 {
		return 0, 0, ErrShortPayload
	}
	return getF32(data[0:]), getF32(data[4:]), nil
}

// EncodeBasicParams builds the payload for IDBasicParams.
func EncodeBasicParams(polePairs uint8, maxDuty uint16) []byte {
	buf := make([]byte, 3)
	buf[0] = polePairs
	binary.LittleEndian.PutUint16(buf[1:], maxDuty)
	return buf
}

// ParseBasicParams decodes an IDBasicParams payload.
func ParseBasicParams(data []byte) (polePairs uint8, maxDuty uint16, err error) {
	if len(data) < 3 {
		return 0, 0, ErrShortPayload
	}
	return data[0], binary.LittleEndian.Uint16(data[1:]), nil
}

// EncodeHallSensorParams builds the payload for IDHallSensorParams.
func EncodeHallSensorParams(filterAlpha, angleOffset float32) []byte {
	buf := make([]byte, 8)
	putF32(buf[0:], filterAlpha)
	putF32(buf[4:], angleOffset)
	return buf
}

// ParseHallSensorParams decodes an IDHallSensorParams payload.
func ParseHallSensorParams(data []byte) (filterAlpha, angleOffset float32, err error) {
	if len(data) < 8 {
		return 0, 0, ErrShortPayload
	}
	return getF32(data[0:]), getF32(data[4:]), nil
}

// EncodeAngleInterpolation builds the payload for IDAngleInterpolation.
func EncodeAngleInterpolation(enable bool) []byte {
	if enable {
		return []byte{1}
	}
	return []byte{0}
}

// ParseAngleInterpolation decodes an IDAngleInterpolation payload.
func ParseAngleInterpolation(data []byte) (bool, error) {
	if len(data) < 1 {
		return false, ErrShortPayload
	}
	return data[0] != 0, nil
}

// EncodeOpenLoopRPMParams builds the payload for IDOpenLoopRPMParams.
func EncodeOpenLoopRPMParams(initialRPM, targetRPM float32) []byte {
	buf := make([]byte, 8)
	putF32(buf[0:], initialRPM)
	putF32(buf[4:], targetRPM)
	return buf
}

// ParseOpenLoopRPMParams decodes an IDOpenLoopRPMParams payload.
func ParseOpenLoopRPMParams(data []byte) (initialRPM, targetRPM float32, err error) {
	if len(data) < 8 {
		return 0, 0, ErrShortPayload
	}
	return getF32(data[0:]), getF32(data[4:]), nil
}

// EncodeOpenLoopAccelDutyParams builds the payload for
// IDOpenLoopAccelDutyParams.
func EncodeOpenLoopAccelDutyParams(acceleration float32, dutyRatio uint16) []byte {
	buf := make([]byte, 6)
	putF32(buf[0:], acceleration)
	binary.LittleEndian.PutUint16(buf[4:], dutyRatio)
	return buf
}

// ParseOpenLoopAccelDutyParams decodes an IDOpenLoopAccelDutyParams
// payload.
func ParseOpenLoopAccelDutyParams(data []byte) (acceleration float32, dutyRatio uint16, err error) {
	if len(data) < 6 {
		return 0, 0, ErrShortPayload
	}
	return getF32(data[0:]), binary.LittleEndian.Uint16(data[4:]), nil
}

// EncodePWMConfig builds the payload for IDPWMConfig.
func EncodePWMConfig(frequencyHz uint32, deadTime uint16) []byte {
	buf := make([]byte, 6)
	binary.LittleEndian.PutUint32(buf, frequencyHz)
	binary.LittleEndian.PutUint16(buf[4:], deadTime)
	return buf
}

// ParsePWMConfig decodes an IDPWMConfig payload.
func ParsePWMConfig(data []byte) (frequencyHz uint32, deadTime uint16, err error) {
	if len(data) < 6 {
		return 0, 0, ErrShortPayload
	}
	return binary.LittleEndian.Uint32(data), binary.LittleEndian.Uint16(data[4:]), nil
}

// EncodeCANConfig builds the payload for IDCANConfig.
func EncodeCANConfig(bitrate uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, bitrate)
	return buf
}

// ParseCANConfig decodes an IDCANConfig payload.
func ParseCANConfig(data []byte) (uint32, error) {
	if len(data) < 4 {
		return 0, ErrShortPayload
	}
	return binary.LittleEndian.Uint32(data), nil
}

// EncodeControlTiming builds the payload for IDControlTiming.
func EncodeControlTiming(controlPeriodUS uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, controlPeriodUS)
	return buf
}

// ParseControlTiming decodes an IDControlTiming payload.
func ParseControlTiming(data []byte) (uint32, error) {
	if len(data) < 4 {
		return 0, ErrShortPayload
	}
	return binary.LittleEndian.Uint32(data), nil
}
