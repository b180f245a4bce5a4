package persist

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/turntablefw/ttcore/internal/config"
)

// globalConfigV2 is the oldest on-disk layout this firmware still reads: it
// predates per-channel phase-mode selection, the 78rpm enable toggle,
// frequency-dependent amplitude, and the boot-speed policy entirely.
type globalConfigV2 struct {
	MaxAmplitudePct  float64
	SoftStartCurve   config.RampCurve
	SmoothSwitch     bool
	SwitchRampS      float64
	BrakeMode        config.BrakeMode
	BrakeDurationS   float64
	BrakePulseGapS   float64
	BrakeStartHz     float64
	BrakeStopHz      float64
	RelayActiveHigh  bool
	RelayLinkStandby bool
	RelayLinkStart   bool
	PowerOnMuteDelayS float64
	AutoStandbyMin   int32
	AutoDimMin       int32
	LastUsedSpeed    int32
	AutoBoot         bool
	AutoStart        bool
	Speeds           [3]config.SpeedProfile
}

// globalConfigV3 adds PhaseMode and Speed78Enabled over v2, but still
// predates FDAPercent and BootSpeedPolicy.
type globalConfigV3 struct {
	PhaseMode         int32
	MaxAmplitudePct   float64
	SoftStartCurve    config.RampCurve
	SmoothSwitch      bool
	SwitchRampS       float64
	BrakeMode         config.BrakeMode
	BrakeDurationS    float64
	BrakePulseGapS    float64
	BrakeStartHz      float64
	BrakeStopHz       float64
	RelayActiveHigh   bool
	RelayLinkStandby  bool
	RelayLinkStart    bool
	PowerOnMuteDelayS float64
	AutoStandbyMin    int32
	AutoDimMin        int32
	Speed78Enabled    bool
	LastUsedSpeed     int32
	AutoBoot          bool
	AutoStart         bool
	Speeds            [3]config.SpeedProfile
}

func encodeGlobalConfigV2(cfg globalConfigV2) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, binary.LittleEndian, cfg); err != nil {
		return nil, fmt.Errorf("persist: encode v2: %w", err)
	}
	out := make([]byte, 4+buf.Len())
	binary.LittleEndian.PutUint32(out[:4], 2)
	copy(out[4:], buf.Bytes())
	return out, nil
}

func decodeGlobalConfigV2(body []byte) (globalConfigV2, error) {
	var v globalConfigV2
	err := binary.Read(bytes.NewReader(body), binary.LittleEndian, &v)
	return v, err
}

func decodeGlobalConfigV3(body []byte) (globalConfigV3, error) {
	var v globalConfigV3
	err := binary.Read(bytes.NewReader(body), binary.LittleEndian, &v)
	return v, err
}

// migrateV2ToV4 copies every field v2 has by name and defaults the fields
// it lacks.
func migrateV2ToV4(v2 globalConfigV2) config.GlobalConfig {
	return config.GlobalConfig{
		SchemaVersion:     config.SchemaVersion,
		PhaseMode:         1, // v2 hardware was single-phase only
		MaxAmplitudePct:   v2.MaxAmplitudePct,
		SoftStartCurve:    v2.SoftStartCurve,
		FDAPercent:        0, // new field default
		SmoothSwitch:      v2.SmoothSwitch,
		SwitchRampS:       v2.SwitchRampS,
		BrakeMode:         v2.BrakeMode,
		BrakeDurationS:    v2.BrakeDurationS,
		BrakePulseGapS:    v2.BrakePulseGapS,
		BrakeStartHz:      v2.BrakeStartHz,
		BrakeStopHz:       v2.BrakeStopHz,
		RelayActiveHigh:   v2.RelayActiveHigh,
		RelayLinkStandby:  v2.RelayLinkStandby,
		RelayLinkStart:    v2.RelayLinkStart,
		PowerOnMuteDelayS: v2.PowerOnMuteDelayS,
		AutoStandbyMin:    v2.AutoStandbyMin,
		AutoDimMin:        v2.AutoDimMin,
		BootSpeedPolicy:   config.BootLastUsed, // new field default
		Speed78Enabled:    true,
		LastUsedSpeed:     v2.LastUsedSpeed,
		PitchRangePct:     20,
		AutoBoot:          v2.AutoBoot,
		AutoStart:         v2.AutoStart,
		Speeds:            v2.Speeds,
	}
}

// migrateV3ToV4 copies every field v3 has by name and defaults the fields
// v3 lacks (FDAPercent, BootSpeedPolicy, PitchRangePct).
func migrateV3ToV4(v3 globalConfigV3) config.GlobalConfig {
	return config.GlobalConfig{
		SchemaVersion:     config.SchemaVersion,
		PhaseMode:         v3.PhaseMode,
		MaxAmplitudePct:   v3.MaxAmplitudePct,
		SoftStartCurve:    v3.SoftStartCurve,
		FDAPercent:        0, // new field default
		SmoothSwitch:      v3.SmoothSwitch,
		SwitchRampS:       v3.SwitchRampS,
		BrakeMode:         v3.BrakeMode,
		BrakeDurationS:    v3.BrakeDurationS,
		BrakePulseGapS:    v3.BrakePulseGapS,
		BrakeStartHz:      v3.BrakeStartHz,
		BrakeStopHz:       v3.BrakeStopHz,
		RelayActiveHigh:   v3.RelayActiveHigh,
		RelayLinkStandby:  v3.RelayLinkStandby,
		RelayLinkStart:    v3.RelayLinkStart,
		PowerOnMuteDelayS: v3.PowerOnMuteDelayS,
		AutoStandbyMin:    v3.AutoStandbyMin,
		AutoDimMin:        v3.AutoDimMin,
		BootSpeedPolicy:   config.BootLastUsed, // new field default
		Speed78Enabled:    v3.Speed78Enabled,
		LastUsedSpeed:     v3.LastUsedSpeed,
		PitchRangePct:     20,
		AutoBoot:          v3.AutoBoot,
		AutoStart:         v3.AutoStart,
		Speeds:            v3.Speeds,
	}
}
