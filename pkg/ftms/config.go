package ftms

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"tinygo.org/x/bluetooth"
)

// Config is a set of dialect tables and the devices that speak them.
type Config struct {
	Dialects []Layout
	Devices  []Device
}

// Device binds a device-name prefix to a dialect.
type Device struct {
	Prefix         string
	Dialect        string
	DisplayName    string
	Characteristic bluetooth.UUID
	Omit           []Target // attributes decoded but not emitted, e.g. lifetime totals
}

type fileConfig struct {
	Dialects []fileDialect `toml:"dialect"`
	Devices  []fileDevice  `toml:"device"`
}

type fileDialect struct {
	Name       string      `toml:"name"`
	FlagsWidth int         `toml:"flags_width"`
	FlagsOrder string      `toml:"flags_order"`
	Fields     []fileField `toml:"field"`
}

type fileField struct {
	Name     string  `toml:"name"`
	Bit      *int    `toml:"bit"`
	Width    int     `toml:"width"`
	Order    string  `toml:"order"`
	Signed   bool    `toml:"signed"`
	Divisor  float64 `toml:"divisor"`
	Target   string  `toml:"target"`
	Sentinel string  `toml:"sentinel"`
}

type fileDevice struct {
	Prefix         string   `toml:"prefix"`
	Dialect        string   `toml:"dialect"`
	DisplayName    string   `toml:"display_name"`
	Characteristic string   `toml:"characteristic"`
	Omit           []string `toml:"omit"`
}

// LoadConfig reads a TOML dialect file.
func LoadConfig(path string) (Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load dialect config: %w", err)
	}
	return buildConfig(raw, meta)
}

// ParseConfig decodes a TOML dialect document.
func ParseConfig(data []byte) (Config, error) {
	var raw fileConfig
	meta, err := toml.Decode(string(data), &raw)
	if err != nil {
		return Config{}, fmt.Errorf("parse dialect config: %w", err)
	}
	return buildConfig(raw, meta)
}

func buildConfig(raw fileConfig, meta toml.MetaData) (Config, error) {
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("unknown keys in dialect config: %s", strings.Join(keys, ", "))
	}

	var cfg Config
	local := make(map[string]bool)
	for _, d := range raw.Dialects {
		l, err := d.layout()
		if err != nil {
			return Config{}, err
		}
		if local[l.Name] {
			return Config{}, fmt.Errorf("dialect %q defined twice", l.Name)
		}
		local[l.Name] = true
		cfg.Dialects = append(cfg.Dialects, l)
	}

	for _, d := range raw.Devices {
		dev, err := d.device()
		if err != nil {
			return Config{}, err
		}
		if !local[dev.Dialect] {
			if _, err := LookupDialect(dev.Dialect); err != nil {
				return Config{}, fmt.Errorf("device %q: %w", dev.Prefix, err)
			}
		}
		cfg.Devices = append(cfg.Devices, dev)
	}
	return cfg, nil
}

func (d fileDialect) layout() (Layout, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return Layout{}, fmt.Errorf("%w: dialect without a name", ErrInvalidLayout)
	}
	order, err := ParseByteOrder(d.FlagsOrder)
	if err != nil {
		return Layout{}, fmt.Errorf("dialect %q: %w", name, err)
	}
	l := Layout{Name: name, FlagsWidth: d.FlagsWidth, FlagsOrder: order}
	for i, ff := range d.Fields {
		if ff.Bit == nil {
			return Layout{}, fmt.Errorf("%w %q: field %d (%s) has no bit", ErrInvalidLayout, name, i, ff.Name)
		}
		f := Field{
			Name:    ff.Name,
			Bit:     *ff.Bit,
			Width:   ff.Width,
			Signed:  ff.Signed,
			Divisor: ff.Divisor,
		}
		if f.Name == "" {
			f.Name = fmt.Sprintf("field %d", i)
		}
		if f.Order, err = ParseByteOrder(ff.Order); err != nil {
			return Layout{}, fmt.Errorf("dialect %q field %q: %w", name, f.Name, err)
		}
		if ff.Target != "" {
			if f.Target, err = ParseTarget(ff.Target); err != nil {
				return Layout{}, fmt.Errorf("dialect %q field %q: %w", name, f.Name, err)
			}
		}
		if f.Sentinel, err = ParseSentinel(ff.Sentinel); err != nil {
			return Layout{}, fmt.Errorf("dialect %q field %q: %w", name, f.Name, err)
		}
		l.Fields = append(l.Fields, f)
	}
	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

func (d fileDevice) device() (Device, error) {
	dev := Device{
		Prefix:      strings.TrimSpace(d.Prefix),
		Dialect:     strings.TrimSpace(d.Dialect),
		DisplayName: strings.TrimSpace(d.DisplayName),
	}
	if dev.Prefix == "" {
		return Device{}, fmt.Errorf("device entry without a prefix")
	}
	if dev.Dialect == "" {
		return Device{}, fmt.Errorf("device %q has no dialect", dev.Prefix)
	}

	switch {
	case d.Characteristic != "":
		uuid, err := ParseCharacteristic(d.Characteristic)
		if err != nil {
			return Device{}, fmt.Errorf("device %q characteristic: %w", dev.Prefix, err)
		}
		dev.Characteristic = uuid
	case dev.Dialect == DialectIndoorBike:
		dev.Characteristic = IndoorBikeDataUUID
	default:
		dev.Characteristic = CrossTrainerDataUUID
	}

	for _, name := range d.Omit {
		t, err := ParseTarget(name)
		if err != nil {
			return Device{}, fmt.Errorf("device %q omit: %w", dev.Prefix, err)
		}
		dev.Omit = append(dev.Omit, t)
	}
	return dev, nil
}

// Register makes every dialect of the config available to LookupDialect.
func (c Config) Register() error {
	for _, l := range c.Dialects {
		if err := RegisterDialect(l); err != nil {
			return err
		}
	}
	return nil
}

// Layout resolves the device's dialect with its omitted attributes applied.
func (d Device) Layout() (Layout, error) {
	l, err := LookupDialect(d.Dialect)
	if err != nil {
		return Layout{}, err
	}
	if len(d.Omit) > 0 {
		l = l.WithoutTargets(d.Omit...)
	}
	return l, nil
}
