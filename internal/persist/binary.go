// Package persist implements the versioned binary settings store:
// settings.bin and preset_{0..4}.bin, each a little-endian u32
// schema_version followed by a packed GlobalConfig, with migrators for
// older schema versions.
package persist

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/turntablefw/ttcore/internal/config"
)

// encodeSpeedProfile writes a SpeedProfile in the current (v4) field order.
// Every field is fixed-size, so binary.Write's reflection-based struct
// encoder is sufficient and keeps this file from becoming a maze of
// manual offsets.
func encodeSpeedProfile(buf *bytes.Buffer, sp config.SpeedProfile) error {
	return binary.Write(buf, binary.LittleEndian, sp)
}

func decodeSpeedProfile(r *bytes.Reader) (config.SpeedProfile, error) {
	var sp config.SpeedProfile
	err := binary.Read(r, binary.LittleEndian, &sp)
	return sp, err
}

// encodeGlobalConfigV4 packs cfg (schema version not included; callers
// prefix it) in the current field layout.
func encodeGlobalConfigV4(cfg config.GlobalConfig) ([]byte, error) {
	buf := &bytes.Buffer{}
	fields := []any{
		cfg.PhaseMode,
		cfg.MaxAmplitudePct,
		cfg.SoftStartCurve,
		cfg.FDAPercent,
		cfg.SmoothSwitch,
		cfg.SwitchRampS,
		cfg.BrakeMode,
		cfg.BrakeDurationS,
		cfg.BrakePulseGapS,
		cfg.BrakeStartHz,
		cfg.BrakeStopHz,
		cfg.RelayActiveHigh,
		cfg.RelayLinkStandby,
		cfg.RelayLinkStart,
		cfg.PowerOnMuteDelayS,
		cfg.AutoStandbyMin,
		cfg.AutoDimMin,
		cfg.BootSpeedPolicy,
		cfg.Speed78Enabled,
		cfg.LastUsedSpeed,
		cfg.PitchRangePct,
		cfg.AutoBoot,
		cfg.AutoStart,
	}
	for _, f := range fields {
		if err := binary.Write(buf, binary.LittleEndian, f); err != nil {
			return nil, fmt.Errorf("persist: encode field %T: %w", f, err)
		}
	}
	for _, sp := range cfg.Speeds {
		if err := encodeSpeedProfile(buf, sp); err != nil {
			return nil, fmt.Errorf("persist: encode speed profile: %w", err)
		}
	}
	return buf.Bytes(), nil
}

func decodeGlobalConfigV4(data []byte) (config.GlobalConfig, error) {
	r := bytes.NewReader(data)
	var cfg config.GlobalConfig
	fields := []any{
		&cfg.PhaseMode,
		&cfg.MaxAmplitudePct,
		&cfg.SoftStartCurve,
		&cfg.FDAPercent,
		&cfg.SmoothSwitch,
		&cfg.SwitchRampS,
		&cfg.BrakeMode,
		&cfg.BrakeDurationS,
		&cfg.BrakePulseGapS,
		&cfg.BrakeStartHz,
		&cfg.BrakeStopHz,
		&cfg.RelayActiveHigh,
		&cfg.RelayLinkStandby,
		&cfg.RelayLinkStart,
		&cfg.PowerOnMuteDelayS,
		&cfg.AutoStandbyMin,
		&cfg.AutoDimMin,
		&cfg.BootSpeedPolicy,
		&cfg.Speed78Enabled,
		&cfg.LastUsedSpeed,
		&cfg.PitchRangePct,
		&cfg.AutoBoot,
		&cfg.AutoStart,
	}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return config.GlobalConfig{}, fmt.Errorf("persist: decode field %T: %w", f, err)
		}
	}
	for i := range cfg.Speeds {
		sp, err := decodeSpeedProfile(r)
		if err != nil {
			return config.GlobalConfig{}, fmt.Errorf("persist: decode speed profile %d: %w", i, err)
		}
		cfg.Speeds[i] = sp
	}
	cfg.SchemaVersion = config.SchemaVersion
	return cfg, nil
}

// Marshal encodes cfg as a schema_version-prefixed v4 binary blob.
func Marshal(cfg config.GlobalConfig) ([]byte, error) {
	body, err := encodeGlobalConfigV4(cfg)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 4+len(body))
	binary.LittleEndian.PutUint32(out[:4], config.SchemaVersion)
	copy(out[4:], body)
	return out, nil
}

// Unmarshal decodes data, migrating forward from an older schema version if
// necessary.
func Unmarshal(data []byte) (config.GlobalConfig, error) {
	if len(data) < 4 {
		return config.GlobalConfig{}, fmt.Errorf("persist: truncated file (%d bytes)", len(data))
	}
	version := binary.LittleEndian.Uint32(data[:4])
	body := data[4:]

	switch version {
	case 4:
		return decodeGlobalConfigV4(body)
	case 3:
		legacy, err := decodeGlobalConfigV3(body)
		if err != nil {
			return config.GlobalConfig{}, err
		}
		return migrateV3ToV4(legacy), nil
	case 2:
		legacy, err := decodeGlobalConfigV2(body)
		if err != nil {
			return config.GlobalConfig{}, err
		}
		return migrateV2ToV4(legacy), nil
	default:
		return config.GlobalConfig{}, fmt.Errorf("persist: unsupported schema version %d", version)
	}
}
