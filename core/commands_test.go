package core

import (
	"errors"
	"testing"

	"focdrive/config"
	"focdrive/foc"
	"focdrive/protocol"
)

type nullStorage struct{ data []byte }

func (n *nullStorage) Read(buf []byte) error {
	if n.data == nil {
		return errors.New("empty")
	}
	copy(buf, n.data)
	return nil
}

func (n *nullStorage) Write(data []byte) error {
	n.data = append([]byte(nil), data...)
	return nil
}

func newTestServer() (*CommandServer, *SharedState, *config.Store) {
	state := NewSharedState(config.DefaultSpeedKp, config.DefaultSpeedKi)
	store := config.NewStore(&nullStorage{})
	return NewCommandServer(state, store), state, store
}

func TestCommandSpeed(t *testing.T) {
	srv, state, _ := newTestServer()
	if err := srv.HandleFrame(protocol.IDSpeedCommand, protocol.EncodeSpeedCommand(750)); err != nil {
		t.Fatalf("HandleFrame: %v", err)
	}
	if state.TargetSpeed() != 750 {
		t.Errorf("target speed = %v, want 750", state.TargetSpeed())
	}
}

func TestCommandGains(t *testing.T) {
	srv, state, store := newTestServer()
	if err := srv.HandleFrame(protocol.IDPIGains, protocol.EncodePIGains(1.5, 0.25)); err != nil {
		t.Fatalf("HandleFrame: %v", err)
	}
	kp, ki := state.Gains()
	if kp != 1.5 || ki != 0.25 {
		t.Errorf("gains = (%v, %v), want (1.5, 0.25)", kp, ki)
	}
	// Gains also land in the pending configuration.
	cfg := store.Current()
	if cfg.SpeedKp != 1.5 || cfg.SpeedKi != 0.25 {
		t.Errorf("stored gains = (%v, %v)", cfg.SpeedKp, cfg.SpeedKi)
	}
}

func TestCommandEmergencyStop(t *testing.T) {
	srv, state, _ := newTestServer()
	state.SetMotorEnabled(true)
	state.SetTargetSpeed(500)

	if err := srv.HandleFrame(protocol.IDEmergencyStop, nil); err != nil {
		t.Fatalf("HandleFrame: %v", err)
	}
	if state.MotorEnabled() || state.TargetSpeed() != 0 {
		t.Error("emergency stop did not disable the motor and zero the target")
	}
}

func TestCommandEnable(t *testing.T) {
	srv, state, _ := newTestServer()
	if err := srv.HandleFrame(protocol.IDMotorEnable, protocol.EncodeMotorEnable(true)); err != nil {
		t.Fatalf("HandleFrame: %v", err)
	}
	if !state.MotorEnabled() {
		t.Error("enable frame did not enable the motor")
	}
}

func TestCommandStartCalibration(t *testing.T) {
	srv, state, _ := newTestServer()

	if err := srv.HandleFrame(protocol.IDStartCalibration, protocol.EncodeStartCalibration(35)); err != nil {
		t.Fatalf("HandleFrame: %v", err)
	}
	torque, requested := state.TakeCalibrationRequest()
	if !requested || torque != 0.35 {
		t.Errorf("request = (%v, %v), want (0.35, true)", torque, requested)
	}
	if !state.MotorEnabled() {
		t.Error("calibration did not enable the motor")
	}

	// Without a torque byte the default applies.
	if err := srv.HandleFrame(protocol.IDStartCalibration, nil); err != nil {
		t.Fatalf("HandleFrame: %v", err)
	}
	torque, _ = state.TakeCalibrationRequest()
	if torque != config.DefaultCalibrationTorque {
		t.Errorf("default torque = %v, want %v", torque, config.DefaultCalibrationTorque)
	}
}

func TestCommandMalformedPayload(t *testing.T) {
	srv, state, _ := newTestServer()
	state.SetTargetSpeed(123)

	err := srv.HandleFrame(protocol.IDSpeedCommand, []byte{0x01})
	if !errors.Is(err, protocol.ErrShortPayload) {
		t.Fatalf("err = %v, want ErrShortPayload", err)
	}
	if state.TargetSpeed() != 123 {
		t.Error("malformed frame changed the target speed")
	}
}

func TestCommandParamFrames(t *testing.T) {
	srv, _, store := newTestServer()

	frames := []struct {
		id   uint16
		data []byte
	}{
		{protocol.IDMotorVoltageParams, protocol.EncodeMotorVoltageParams(20, 22)},
		{protocol.IDBasicParams, protocol.EncodeBasicParams(4, 500)},
		{protocol.IDHallSensorParams, protocol.EncodeHallSensorParams(0.1, 0.5)},
		{protocol.IDAngleInterpolation, protocol.EncodeAngleInterpolation(false)},
		{protocol.IDOpenLoopRPMParams, protocol.EncodeOpenLoopRPMParams(40, 400)},
		{protocol.IDOpenLoopAccelDutyParams, protocol.EncodeOpenLoopAccelDutyParams(25, 60)},
		{protocol.IDPWMConfig, protocol.EncodePWMConfig(25_000, 2)},
		{protocol.IDCANConfig, protocol.EncodeCANConfig(500_000)},
		{protocol.IDControlTiming, protocol.EncodeControlTiming(200)},
	}
	for _, f := range frames {
		if err := srv.HandleFrame(f.id, f.data); err != nil {
			t.Fatalf("frame 0x%03X: %v", f.id, err)
		}
	}

	cfg := store.Current()
	if cfg.MaxVoltage != 20 || cfg.VDCBus != 22 {
		t.Errorf("voltage params not applied: %+v", cfg)
	}
	if cfg.PolePairs != 4 || cfg.MaxDuty != 500 {
		t.Errorf("basic params not applied: %+v", cfg)
	}
	if cfg.EnableInterpolation {
		t.Error("interpolation flag not applied")
	}
	if cfg.OpenLoopInitialRPM != 40 || cfg.OpenLoopTargetRPM != 400 ||
		cfg.OpenLoopAcceleration != 25 || cfg.OpenLoopDutyRatio != 60 {
		t.Errorf("open loop params not applied: %+v", cfg)
	}
	if cfg.PWMFrequency != 25_000 || cfg.PWMDeadTime != 2 {
		t.Errorf("pwm config not applied: %+v", cfg)
	}
	if cfg.CANBitrate != 500_000 || cfg.ControlPeriodUS != 200 {
		t.Errorf("can/timing config not applied: %+v", cfg)
	}
}

func TestCommandSaveReloadReset(t *testing.T) {
	srv, state, store := newTestServer()

	srv.HandleFrame(protocol.IDPIGains, protocol.EncodePIGains(3, 0.5))
	if err := srv.HandleFrame(protocol.IDSaveConfig, nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, crcValid := state.ConfigStatus(); !crcValid {
		t.Error("config status not valid after save")
	}

	// Change gains live, then reload the saved record.
	state.SetGains(9, 9)
	if err := srv.HandleFrame(protocol.IDReloadConfig, nil); err != nil {
		t.Fatalf("reload: %v", err)
	}
	kp, ki := state.Gains()
	if kp != 3 || ki != 0.5 {
		t.Errorf("gains after reload = (%v, %v), want (3, 0.5)", kp, ki)
	}

	if err := srv.HandleFrame(protocol.IDResetConfig, nil); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if store.Current() != config.DefaultConfig() {
		t.Error("config not defaults after reset")
	}
	kp, _ = state.Gains()
	if kp != config.DefaultSpeedKp {
		t.Errorf("kp after reset = %v, want default", kp)
	}
}

func TestStatusFrames(t *testing.T) {
	srv, state, _ := newTestServer()

	state.PublishStatus(MotorStatus{SpeedRPM: 250, ElectricalAngle: 1.5})
	frame := srv.MotorStatusFrame()
	speed, angle, err := protocol.ParseMotorStatus(frame.Data)
	if err != nil || frame.ID != protocol.IDMotorStatus || speed != 250 || angle != 1.5 {
		t.Errorf("motor status frame = %+v (%v, %v, %v)", frame, speed, angle, err)
	}

	state.PublishVoltage(VoltageStatus{Voltage: 24.5, Overvoltage: true})
	frame = srv.VoltageStatusFrame()
	voltage, ov, uv, err := protocol.ParseVoltageStatus(frame.Data)
	if err != nil || voltage != 24.5 || !ov || uv {
		t.Errorf("voltage status frame = (%v, %v, %v, %v)", voltage, ov, uv, err)
	}

	// No calibration has run yet.
	if _, ok := srv.CalibrationStatusFrame(); ok {
		t.Error("calibration frame available before any run")
	}

	state.PublishCalibrationResult(foc.CalibrationResult{
		ElectricalOffset: 2.5, DirectionInversed: true, Success: true,
	})
	frame, ok := srv.CalibrationStatusFrame()
	if !ok {
		t.Fatal("calibration frame unavailable after a run")
	}
	offset, inversed, success, err := protocol.ParseCalibrationStatus(frame.Data)
	if err != nil || offset != 2.5 || !inversed || !success {
		t.Errorf("calibration frame = (%v, %v, %v, %v)", offset, inversed, success, err)
	}
}

func TestRecordCalibrationToConfig(t *testing.T) {
	srv, _, store := newTestServer()

	srv.RecordCalibrationToConfig(foc.CalibrationResult{Success: false, ElectricalOffset: 9})
	if store.Current().CalibrationValid {
		t.Error("failed calibration recorded into config")
	}

	srv.RecordCalibrationToConfig(foc.CalibrationResult{
		Success: true, ElectricalOffset: 1.25, DirectionInversed: true,
	})
	cfg := store.Current()
	if !cfg.CalibrationValid || cfg.CalibrationOffset != 1.25 || !cfg.CalibrationInversed {
		t.Errorf("calibration not recorded: %+v", cfg)
	}
}
