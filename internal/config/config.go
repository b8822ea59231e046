package config

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type Config interface {
	Init(cmd *cobra.Command) error
	Set()
}

// Setup holds the operator answers. Answers left empty are asked for
// interactively unless AssumeYes is set.
type Setup struct {
	AssumeYes bool
	DryRun    bool

	// nil means ask
	SvxLink   *bool
	Host      string
	StreamURL string

	Report string
}

func (Setup) Init(cmd *cobra.Command) error {
	cmd.PersistentFlags().BoolP("yes", "y", false, "run unattended, accept every default")
	if err := viper.BindPFlag("yes", cmd.PersistentFlags().Lookup("yes")); err != nil {
		return err
	}

	cmd.PersistentFlags().Bool("dry-run", false, "log system commands instead of running them")
	if err := viper.BindPFlag("dry-run", cmd.PersistentFlags().Lookup("dry-run")); err != nil {
		return err
	}

	cmd.PersistentFlags().Bool("svxlink", false, "whether svxlink is installed on this host (asked when not set)")
	if err := viper.BindPFlag("svxlink", cmd.PersistentFlags().Lookup("svxlink")); err != nil {
		return err
	}

	cmd.PersistentFlags().String("host", "", "lan address of this host (detected when empty)")
	if err := viper.BindPFlag("host", cmd.PersistentFlags().Lookup("host")); err != nil {
		return err
	}

	cmd.PersistentFlags().String("stream-url", "", "public url of the stream, written to the darkice config")
	if err := viper.BindPFlag("stream-url", cmd.PersistentFlags().Lookup("stream-url")); err != nil {
		return err
	}

	cmd.PersistentFlags().String("report", "", "write a yaml summary of the run to this path")
	if err := viper.BindPFlag("report", cmd.PersistentFlags().Lookup("report")); err != nil {
		return err
	}

	return nil
}

func (s *Setup) Set() {
	s.AssumeYes = viper.GetBool("yes")
	s.DryRun = viper.GetBool("dry-run")

	s.SvxLink = nil
	if viper.IsSet("svxlink") {
		installed := viper.GetBool("svxlink")
		s.SvxLink = &installed
	}

	s.Host = viper.GetString("host")
	s.StreamURL = viper.GetString("stream-url")
	s.Report = viper.GetString("report")
}

type Verify struct {
	Port    int
	Timeout time.Duration
	Grace   time.Duration
}

func (Verify) Init(cmd *cobra.Command) error {
	cmd.PersistentFlags().Int("verify.port", 8000, "icecast port probed after setup")
	if err := viper.BindPFlag("verify.port", cmd.PersistentFlags().Lookup("verify.port")); err != nil {
		return err
	}

	cmd.PersistentFlags().Duration("verify.timeout", 5*time.Second, "timeout of the reachability probe")
	if err := viper.BindPFlag("verify.timeout", cmd.PersistentFlags().Lookup("verify.timeout")); err != nil {
		return err
	}

	cmd.PersistentFlags().Duration("verify.grace", 5*time.Second, "how long to wait for services to start before probing")
	if err := viper.BindPFlag("verify.grace", cmd.PersistentFlags().Lookup("verify.grace")); err != nil {
		return err
	}

	return nil
}

func (v *Verify) Set() {
	v.Port = viper.GetInt("verify.port")
	v.Timeout = viper.GetDuration("verify.timeout")
	v.Grace = viper.GetDuration("verify.grace")

	if v.Port <= 0 {
		v.Port = 8000
	}
	if v.Timeout <= 0 {
		v.Timeout = 5 * time.Second
	}
}
