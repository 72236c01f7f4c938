package main

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mlsorensen/goftms/pkg/ftms"
)

var (
	rootCmd = &cobra.Command{
		Use:   "ftmsdecode [hex]",
		Short: "Decode Fitness Machine Service notifications",
		Long:  "ftmsdecode decodes FTMS data notifications given as hex, using a built-in or configured dialect.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			layout, err := resolveLayout()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				return runInteractive(cmd.InOrStdin(), out, layout)
			}
			return runDecode(out, layout, args[0])
		},
	}

	listCmd = &cobra.Command{
		Use:   "dialects",
		Short: "List the available dialects",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(); err != nil {
				return err
			}
			for _, name := range ftms.Dialects() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}

	dialect    string
	configPath string
	omit       []string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&dialect, "dialect", ftms.DialectCrossTrainer, "wire dialect used to decode")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML file with extra dialects")
	rootCmd.Flags().StringSliceVar(&omit, "omit", nil, "attributes to decode but not report, e.g. totalDistance,kcal")
	rootCmd.AddCommand(listCmd)
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if err := rootCmd.Execute(); err != nil {
		logrus.Fatal(err)
	}
}

func loadConfig() error {
	if configPath == "" {
		return nil
	}
	cfg, err := ftms.LoadConfig(configPath)
	if err != nil {
		return err
	}
	return cfg.Register()
}

func resolveLayout() (ftms.Layout, error) {
	if err := loadConfig(); err != nil {
		return ftms.Layout{}, err
	}
	layout, err := ftms.LookupDialect(dialect)
	if err != nil {
		return ftms.Layout{}, err
	}
	targets := make([]ftms.Target, 0, len(omit))
	for _, name := range omit {
		t, err := ftms.ParseTarget(name)
		if err != nil {
			return ftms.Layout{}, err
		}
		targets = append(targets, t)
	}
	return layout.WithoutTargets(targets...), nil
}

func runInteractive(in io.Reader, out io.Writer, layout ftms.Layout) error {
	scanner := bufio.NewScanner(in)
	logrus.WithField("dialect", layout.Name).Info("ftmsdecode interactive mode. Paste a hex frame and press Enter (Ctrl+D to exit).")
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := runDecode(out, layout, line); err != nil {
			logrus.WithError(err).Error("failed to decode frame")
		}
	}
	return scanner.Err()
}

type result struct {
	Dialect  string       `json:"dialect"`
	Flags    string       `json:"flags"`
	Length   int          `json:"length"`
	Consumed int          `json:"consumed"`
	Metrics  ftms.Metrics `json:"metrics"`
}

func runDecode(out io.Writer, layout ftms.Layout, raw string) error {
	data, err := decodeHex(raw)
	if err != nil {
		return err
	}
	frame, err := ftms.DecodeFrame(layout, data)
	if err != nil {
		return err
	}
	if frame.Consumed < len(data) {
		logrus.WithField("trailing", len(data)-frame.Consumed).Warn("frame has unread trailing bytes")
	}
	if unknown := frame.Flags &^ layout.FlagMask(); unknown != 0 {
		logrus.WithField("bits", fmt.Sprintf("0x%X", unknown)).Warn("flags contain bits the dialect does not know")
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result{
		Dialect:  layout.Name,
		Flags:    fmt.Sprintf("0x%0*X", layout.FlagsWidth*2, frame.Flags),
		Length:   len(data),
		Consumed: frame.Consumed,
		Metrics:  frame.Metrics,
	})
}

func decodeHex(input string) ([]byte, error) {
	clean := stripWhitespace(input)
	if strings.HasPrefix(clean, "0x") || strings.HasPrefix(clean, "0X") {
		clean = clean[2:]
	}
	if len(clean)%2 != 0 {
		return nil, fmt.Errorf("hex frame must contain an even number of digits, got %d", len(clean))
	}
	decoded, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return decoded, nil
}

func stripWhitespace(s string) string {
	builder := strings.Builder{}
	builder.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || r == ':' || r == '-' || r == '_' {
			continue
		}
		builder.WriteRune(r)
	}
	return builder.String()
}
