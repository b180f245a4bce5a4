package config

// Default returns a GlobalConfig with factory-default values. It is always
// already valid: Validate is a no-op on it.
func Default() GlobalConfig {
	cfg := GlobalConfig{
		SchemaVersion:   SchemaVersion,
		PhaseMode:       1,
		MaxAmplitudePct: 100,
		SoftStartCurve:  RampSCurve,
		FDAPercent:      0,
		SmoothSwitch:    true,
		SwitchRampS:     3,

		BrakeMode:      BrakeOff,
		BrakeDurationS: 2,
		BrakePulseGapS: 0.5,
		BrakeStartHz:   50,
		BrakeStopHz:    5,

		RelayActiveHigh:  true,
		RelayLinkStandby: true,
		RelayLinkStart:   true,

		PowerOnMuteDelayS: 1.0,
		AutoStandbyMin:    30,
		AutoDimMin:        5,

		BootSpeedPolicy: BootLastUsed,
		Speed78Enabled:  true,
		LastUsedSpeed:   0,
		PitchRangePct:   20,

		AutoBoot:  false,
		AutoStart: false,
	}
	cfg.Speeds[0] = defaultSpeedProfile(50.0)   // 33 1/3 RPM
	cfg.Speeds[1] = defaultSpeedProfile(67.5)   // 45 RPM
	cfg.Speeds[2] = defaultSpeedProfile(117.0)  // 78 RPM
	return cfg
}

func defaultSpeedProfile(nominalHz float64) SpeedProfile {
	return SpeedProfile{
		NominalFreqHz:     nominalHz,
		MinFreqHz:         nominalHz * 0.5,
		MaxFreqHz:         nominalHz * 1.5,
		SoftStartSeconds:  1.0,
		KickMultiplier:    1,
		KickHoldSeconds:   0,
		KickRampSeconds:   0,
		ReducedAmpPercent: 100,
		ReducedAmpDelayS:  0,
		Filter:            FilterNone,
		IIRAlpha:          0.2,
		FIRProfile:        FIRGentle,
	}
}
