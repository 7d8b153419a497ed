// Package protocol implements the drive's command and status link:
// fixed-layout little-endian payloads keyed by numeric frame IDs, plus
// a byte-stream transport with length, CRC16 and sync-byte framing for
// serial links. On CAN the frame ID maps directly to the CAN message
// ID and only the payload codecs are used.
package protocol

// Command frame IDs (host to drive).
const (
	IDEmergencyStop    uint16 = 0x000
	IDSpeedCommand     uint16 = 0x100
	IDPIGains          uint16 = 0x101
	IDMotorEnable      uint16 = 0x102
	IDSaveConfig       uint16 = 0x103
	IDReloadConfig     uint16 = 0x104
	IDResetConfig      uint16 = 0x105
	IDStartCalibration uint16 = 0x106
)

// Parameter frame IDs (host to drive); each updates a group of stored
// configuration fields.
const (
	IDMotorVoltageParams      uint16 = 0x110
	IDBasicParams             uint16 = 0x111
	IDHallSensorParams        uint16 = 0x112
	IDAngleInterpolation      uint16 = 0x113
	IDOpenLoopRPMParams       uint16 = 0x120
	IDOpenLoopAccelDutyParams uint16 = 0x121
	IDPWMConfig               uint16 = 0x130
	IDCANConfig               uint16 = 0x140
	IDControlTiming           uint16 = 0x150
)

// Status frame IDs (drive to host).
const (
	IDMotorStatus       uint16 = 0x200
	IDVoltageStatus     uint16 = 0x201
	IDConfigStatus      uint16 = 0x202
	IDCalibrationStatus uint16 = 0x203
)

// Frame is one decoded message: a numeric ID and its raw payload.
type Frame struct {
	ID   uint16
	Data []byte
}
