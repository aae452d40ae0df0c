package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// options holds every setting of both commands. Values come from the
// optional YAML config file, overridden by flags given on the command line.
type options struct {
	Roots       []string `yaml:"roots"`
	Out         string   `yaml:"out"`
	OCILayout   string   `yaml:"oci_layout"`
	Registry    string   `yaml:"registry"`
	Tag         string   `yaml:"tag"`
	PlainHTTP   bool     `yaml:"plain_http"`
	Anonymous   bool     `yaml:"anonymous"`
	BatchSize   int      `yaml:"batch_size"`
	Compression string   `yaml:"compression"`
	Hash        string   `yaml:"hash"`
	Receipts    string   `yaml:"receipts"`
	FileFlags   bool     `yaml:"file_flags"`
	Parallel    int      `yaml:"parallel"`
	MaxBatch    uint64   `yaml:"max_batch_size"`
	LogLevel    string   `yaml:"log_level"`
}

const defaultTag = "latest"

func defaultOptions() options {
	return options{
		Compression: "gzip",
		Hash:        "sha256",
		Parallel:    1,
		LogLevel:    "info",
	}
}

// loadConfig decodes a YAML config file over base. Unknown keys are an
// error so a typo does not silently fall back to a default.
func loadConfig(path string, base options) (options, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator-supplied
	if err != nil {
		return base, fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&base); err != nil && !errors.Is(err, io.EOF) {
		return base, fmt.Errorf("parse config %s: %w", path, err)
	}
	return base, nil
}

// parseOptions parses args with fs, applying the config file named by
// --config first. Only flags set on the command line override the file.
func parseOptions(fs *pflag.FlagSet, args []string, flags *options) (options, error) {
	configPath := fs.String("config", "", "YAML config file")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	opts := defaultOptions()
	if *configPath != "" {
		var err error
		if opts, err = loadConfig(*configPath, opts); err != nil {
			return options{}, err
		}
	}

	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "root":
			opts.Roots = flags.Roots
		case "out":
			opts.Out = flags.Out
		case "oci-layout":
			opts.OCILayout = flags.OCILayout
		case "registry":
			opts.Registry = flags.Registry
		case "tag":
			opts.Tag = flags.Tag
		case "plain-http":
			opts.PlainHTTP = flags.PlainHTTP
		case "anonymous":
			opts.Anonymous = flags.Anonymous
		case "batch-size":
			opts.BatchSize = flags.BatchSize
		case "compression":
			opts.Compression = flags.Compression
		case "hash":
			opts.Hash = flags.Hash
		case "receipts":
			opts.Receipts = flags.Receipts
		case "file-flags":
			opts.FileFlags = flags.FileFlags
		case "parallel":
			opts.Parallel = flags.Parallel
		case "max-batch-size":
			opts.MaxBatch = flags.MaxBatch
		case "log-level":
			opts.LogLevel = flags.LogLevel
		}
	})
	return opts, nil
}

// addTargetFlags registers the flags selecting where batches are stored.
func addTargetFlags(fs *pflag.FlagSet, o *options) {
	fs.StringVar(&o.Out, "out", "", "directory of the content-addressed blob store")
	fs.StringVar(&o.OCILayout, "oci-layout", "", "OCI image layout directory")
	fs.StringVar(&o.Registry, "registry", "", "registry repository reference (host/repo[:tag])")
	fs.StringVar(&o.Tag, "tag", "", `manifest tag for OCI targets (default: the --registry tag, else "latest")`)
	fs.BoolVar(&o.PlainHTTP, "plain-http", false, "use HTTP instead of HTTPS for the registry")
	fs.BoolVar(&o.Anonymous, "anonymous", false, "skip registry credential lookup")
	fs.Uint64Var(&o.MaxBatch, "max-batch-size", 0, "reject batches that decompress beyond this many bytes (0 = no limit)")
	fs.StringVar(&o.Receipts, "receipts", "", "receipts file (JSON lines)")
	fs.StringVar(&o.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

// checkTarget verifies exactly one storage target is selected.
func (o *options) checkTarget() error {
	n := 0
	for _, v := range []string{o.Out, o.OCILayout, o.Registry} {
		if v != "" {
			n++
		}
	}
	if n != 1 {
		return errors.New("exactly one of --out, --oci-layout or --registry is required")
	}
	return nil
}
