// Package cliio implements the serial CLI: a newline-terminated,
// 115200-baud command set for starting/stopping the motor, cycling speeds,
// inspecting status, and getting/setting tunables. Commands are parsed
// into a {Name, Args} shape and dispatched over a plain io.Reader/io.Writer
// pair, so the same session serves a UART, a pty, or a test buffer.
package cliio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/turntablefw/ttcore/internal/config"
	"github.com/turntablefw/ttcore/internal/errlog"
	"github.com/turntablefw/ttcore/internal/ferror"
	"github.com/turntablefw/ttcore/internal/motor"
	"github.com/turntablefw/ttcore/internal/persist"
	"github.com/turntablefw/ttcore/internal/statusbus"
)

// Command is a parsed input line: a lower-cased name plus whitespace-split
// arguments.
type Command struct {
	Name string
	Args []string
}

// ParseCommand splits a raw input line into a Command: trim, split on
// whitespace, lower-case the verb.
func ParseCommand(line string) Command {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}
	}
	fields := strings.Fields(line)
	return Command{Name: strings.ToLower(fields[0]), Args: fields[1:]}
}

// ancillarySettings holds the CLI-settable keys that have no home in
// config.GlobalConfig because they belong to the OLED/menu/screensaver
// surfaces the display layer owns. The session stores them itself rather
// than threading them through the core data model.
type ancillarySettings struct {
	brightness int32 // 0-100
	pitchStep  int32 // percent per encoder detent
	reverseEnc bool
	saverMode  string
}

func defaultAncillarySettings() ancillarySettings {
	return ancillarySettings{brightness: 80, pitchStep: 1, reverseEnc: false, saverMode: "off"}
}

// Session binds the CLI dispatcher to the live controller, configuration,
// persistence store, and error-reporting surfaces it commands.
type Session struct {
	Controller *motor.Controller
	Config     *config.GlobalConfig
	Store      persist.Store
	ErrLog     *errlog.Log
	ErrHandler *ferror.Handler
	Bus        *statusbus.Bus

	ancillary ancillarySettings
}

// NewSession constructs a Session with factory-default ancillary settings.
func NewSession(c *motor.Controller, cfg *config.GlobalConfig, store persist.Store, log *errlog.Log, eh *ferror.Handler, bus *statusbus.Bus) *Session {
	return &Session{
		Controller: c,
		Config:     cfg,
		Store:      store,
		ErrLog:     log,
		ErrHandler: eh,
		Bus:        bus,
		ancillary:  defaultAncillarySettings(),
	}
}

// Dispatch executes one parsed command and returns its response text,
// newline-terminated exactly once. Unknown commands yield a single-line error, also
// newline-terminated.
func (s *Session) Dispatch(cmd Command) string {
	switch cmd.Name {
	case "":
		return ""
	case "start":
		s.Controller.Start()
		return "ok\n"
	case "stop":
		s.Controller.Stop()
		return "ok\n"
	case "speed":
		return s.cmdSpeed(cmd)
	case "s":
		s.Controller.CycleSpeed()
		return "ok\n"
	case "t":
		s.Controller.ToggleStandby()
		return "ok\n"
	case "p":
		s.Controller.ResetPitch()
		return "ok\n"
	case "status", "i":
		return s.cmdStatus()
	case "list":
		return s.cmdList()
	case "get":
		return s.cmdGet(cmd)
	case "set":
		return s.cmdSet(cmd)
	case "error":
		return s.cmdError(cmd)
	case "f":
		return s.cmdFactoryReset()
	case "help":
		return s.cmdHelp()
	default:
		return fmt.Sprintf("error: unknown command %q\n", cmd.Name)
	}
}

// HandleLine parses and dispatches a single raw input line.
func (s *Session) HandleLine(line string) string {
	return s.Dispatch(ParseCommand(line))
}

// Run reads newline-terminated commands from r and writes each response to
// w until r is exhausted.
func (s *Session) Run(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		out := s.HandleLine(scanner.Text())
		if out == "" {
			continue
		}
		if _, err := io.WriteString(w, out); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (s *Session) cmdSpeed(cmd Command) string {
	if len(cmd.Args) != 1 {
		return "error: usage: speed <0|1|2>\n"
	}
	n, err := strconv.Atoi(cmd.Args[0])
	if err != nil || n < 0 || n > 2 {
		return fmt.Sprintf("error: invalid speed index %q\n", cmd.Args[0])
	}
	s.Controller.SetSpeed(n)
	return "ok\n"
}

func (s *Session) cmdStatus() string {
	return fmt.Sprintf("state=%s freq=%.2f pitch=%.1f session=%ds total=%ds\n",
		s.Bus.MotorState(), s.Bus.CurrentFrequency(), s.Bus.CurrentPitch(),
		s.Controller.SessionSeconds(), s.Controller.TotalSeconds())
}

func (s *Session) cmdList() string {
	if s.Store == nil {
		return "error: no persistence store configured\n"
	}
	var b strings.Builder
	for i := 0; i < config.NumPresetSlots; i++ {
		preset, err := s.Store.LoadPreset(i)
		if err != nil {
			fmt.Fprintf(&b, "%d: (empty)\n", i)
			continue
		}
		fmt.Fprintf(&b, "%d: %s\n", i, preset.Name)
	}
	return b.String()
}

func (s *Session) cmdError(cmd Command) string {
	if len(cmd.Args) != 1 {
		return "error: usage: error <dump|clear>\n"
	}
	switch cmd.Args[0] {
	case "dump":
		if s.ErrLog == nil {
			return "error: no error log configured\n"
		}
		entries, err := s.ErrLog.ReadAll()
		if err != nil {
			return fmt.Sprintf("error: %s\n", err)
		}
		if len(entries) == 0 {
			return "(empty)\n"
		}
		var b strings.Builder
		for _, e := range entries {
			fmt.Fprintf(&b, "%d,%d,%s\n", e.Millis, e.Code, e.Message)
		}
		return b.String()
	case "clear":
		if s.ErrLog != nil {
			if err := s.ErrLog.Clear(); err != nil {
				return fmt.Sprintf("error: %s\n", err)
			}
		}
		if s.ErrHandler != nil {
			s.ErrHandler.ClearCriticalError()
		}
		return "ok\n"
	default:
		return "error: usage: error <dump|clear>\n"
	}
}

func (s *Session) cmdFactoryReset() string {
	if s.Store != nil {
		if err := s.Store.ResetAll(); err != nil {
			return fmt.Sprintf("error: %s\n", err)
		}
	}
	*s.Config = config.Default()
	s.ancillary = defaultAncillarySettings()
	return "ok\n"
}

func (s *Session) cmdHelp() string {
	lines := []string{
		"start               begin startup sequence",
		"stop                begin stopping sequence",
		"speed N             jump to speed slot N (0-2)",
		"s                   cycle to next speed",
		"t                   toggle standby",
		"p                   reset pitch to 0",
		"status | i          show motor state/frequency/pitch/runtime",
		"list                list preset slots",
		"get <key>           read a tunable",
		"set <key> <val>     write a tunable",
		"error dump|clear    show or clear the error log",
		"f                   factory reset",
		"help                show this text",
	}
	return strings.Join(lines, "\n") + "\n"
}

// activeSpeed returns a pointer to the SpeedProfile the get/set surface
// operates on: the one the controller currently has selected.
func (s *Session) activeSpeed() *config.SpeedProfile {
	return &s.Config.Speeds[s.Controller.SpeedIndex()]
}

func (s *Session) cmdGet(cmd Command) string {
	if len(cmd.Args) != 1 {
		return "error: usage: get <key>\n"
	}
	v, err := s.getKey(cmd.Args[0])
	if err != nil {
		return fmt.Sprintf("error: %s\n", err)
	}
	return v + "\n"
}

func (s *Session) cmdSet(cmd Command) string {
	if len(cmd.Args) != 2 {
		return "error: usage: set <key> <val>\n"
	}
	if err := s.setKey(cmd.Args[0], cmd.Args[1]); err != nil {
		return fmt.Sprintf("error: %s\n", err)
	}
	s.Config.Validate()
	return "ok\n"
}

func (s *Session) getKey(key string) (string, error) {
	sp := s.activeSpeed()
	switch key {
	case "brightness":
		return strconv.Itoa(int(s.ancillary.brightness)), nil
	case "ramp":
		return fmt.Sprintf("%g", s.Config.SwitchRampS), nil
	case "pitch_step":
		return strconv.Itoa(int(s.ancillary.pitchStep)), nil
	case "rev_enc":
		return strconv.FormatBool(s.ancillary.reverseEnc), nil
	case "saver_mode":
		return s.ancillary.saverMode, nil
	case "freq":
		return fmt.Sprintf("%g", sp.NominalFreqHz), nil
	case "phase1", "phase2", "phase3", "phase4":
		return fmt.Sprintf("%g", sp.PhaseOffsetDeg[phaseIndex(key)]), nil
	case "soft_start":
		return fmt.Sprintf("%g", sp.SoftStartSeconds), nil
	case "kick":
		return strconv.Itoa(int(sp.KickMultiplier)), nil
	case "kick_dur":
		return fmt.Sprintf("%g", sp.KickHoldSeconds), nil
	case "pitch":
		return fmt.Sprintf("%g", s.Controller.Pitch()), nil
	default:
		return "", fmt.Errorf("unknown key %q", key)
	}
}

func (s *Session) setKey(key, val string) error {
	sp := s.activeSpeed()
	switch key {
	case "brightness":
		n, err := strconv.Atoi(val)
		if err != nil {
			return err
		}
		s.ancillary.brightness = int32(n)
	case "ramp":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return err
		}
		s.Config.SwitchRampS = f
	case "pitch_step":
		n, err := strconv.Atoi(val)
		if err != nil {
			return err
		}
		s.ancillary.pitchStep = int32(n)
	case "rev_enc":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return err
		}
		s.ancillary.reverseEnc = b
	case "saver_mode":
		s.ancillary.saverMode = val
	case "freq":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return err
		}
		sp.NominalFreqHz = f
	case "phase1", "phase2", "phase3", "phase4":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return err
		}
		sp.PhaseOffsetDeg[phaseIndex(key)] = f
	case "soft_start":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return err
		}
		sp.SoftStartSeconds = f
	case "kick":
		n, err := strconv.Atoi(val)
		if err != nil {
			return err
		}
		sp.KickMultiplier = int32(n)
	case "kick_dur":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return err
		}
		sp.KickHoldSeconds = f
	case "pitch":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return err
		}
		s.Controller.SetPitch(f)
	default:
		return fmt.Errorf("unknown key %q", key)
	}
	return nil
}

func phaseIndex(key string) int {
	return int(key[len(key)-1] - '1')
}
