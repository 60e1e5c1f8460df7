package config

import "github.com/spf13/pflag"

// Flags binds command-line overrides onto a pflag set. Only flags the user
// actually set override file values.
type Flags struct {
	fs *pflag.FlagSet

	config  string
	debug   bool
	logFile string

	models   []string
	anims    []string
	offsets  []float64
	output   string
	level    int
	optimize int
	validate int

	positions       bool
	normals         bool
	generateNormals bool
	noUVs           bool
	formNameSpaces  bool
	groupByInstance bool
	noReplace       bool
	forceNoMatch    bool
	passNoMatch     bool
	noLoadOpt       bool
	noBlockCheck    bool
	forceJoin       bool
	direct          bool
	projectName     string
	scaleFactor     float32
}

// BindFlags registers every config flag on fs.
func BindFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVar(&f.config, "config", "", "Path to config file (.yaml or .toml)")
	fs.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.logFile, "log-file", "", "Also write logs to this file")

	fs.StringArrayVarP(&f.models, "model", "m", nil, "Model archive (repeatable)")
	fs.StringArrayVarP(&f.anims, "anim", "a", nil, "Animation archive (repeatable)")
	fs.Float64SliceVar(&f.offsets, "offset", nil, "Time offset per animation archive")
	fs.StringVarP(&f.output, "output", "o", "", "Output archive")
	fs.IntVar(&f.level, "level", 1, "Output container: 0 raw, 1 compressed, 2 memory raw, 3 memory compressed")
	fs.IntVar(&f.optimize, "optimize", 0, "Optimization level 0-4")
	fs.IntVar(&f.validate, "validate", 1, "Validation level 0-2")

	fs.BoolVar(&f.positions, "positions", false, "Write world-space rest positions")
	fs.BoolVar(&f.normals, "normals", false, "Write world-space rest normals")
	fs.BoolVar(&f.generateNormals, "generate-normals", false, "Generate rest normals for models without them")
	fs.BoolVar(&f.noUVs, "no-uvs", false, "Do not carry model uv sets")
	fs.BoolVar(&f.formNameSpaces, "form-name-spaces", false, "Qualify top-level names with the asset name")
	fs.BoolVar(&f.groupByInstance, "group-by-instance", false, "Group each animation under an instance transform")
	fs.BoolVar(&f.noReplace, "no-replace", false, "Keep the animated first sample")
	fs.BoolVar(&f.forceNoMatch, "force-no-match", false, "Write animation data without model matching")
	fs.BoolVar(&f.passNoMatch, "pass-no-match", false, "Write unmatched leaves from animation data")
	fs.BoolVar(&f.noLoadOpt, "no-load-opt", false, "Read archives from disk instead of memory")
	fs.BoolVar(&f.noBlockCheck, "no-block-check", false, "Report validation messages as warnings")
	fs.BoolVar(&f.forceJoin, "force-join", false, "Attach model data even when point counts differ")
	fs.BoolVar(&f.direct, "direct", false, "Copy a single animation archive directly")
	fs.StringVar(&f.projectName, "project-name", "", "Project prefix for shader paths")
	fs.Float32Var(&f.scaleFactor, "scale-factor", 1, "World scale applied to model roots")
	return f
}

// ConfigPath returns the explicit config path if provided via --config.
func (f *Flags) ConfigPath() string {
	return f.config
}

// applyFlags applies CLI flag overrides to the config.
func (f *Flags) applyFlags(cfg *Config) {
	changed := f.fs.Changed
	if f.debug {
		cfg.Logging.Level = "debug"
	}
	if f.logFile != "" {
		cfg.Logging.LogFile = f.logFile
	}

	j := &cfg.Join
	if changed("model") {
		j.Models = f.models
	}
	if changed("anim") {
		j.Anims = f.anims
	}
	if changed("offset") {
		j.Offsets = f.offsets
	}
	if changed("output") {
		j.Output = f.output
	}
	if changed("level") {
		j.ContainerLevel = f.level
	}
	if changed("optimize") {
		cfg.Optimize.Level = f.optimize
	}
	if changed("validate") {
		j.ValidateLevel = f.validate
	}
	if changed("project-name") {
		j.ProjectName = f.projectName
	}
	if changed("scale-factor") {
		j.ScaleFactor = f.scaleFactor
	}

	bools := []struct {
		name string
		src  bool
		dst  *bool
	}{
		{"positions", f.positions, &j.Positions},
		{"normals", f.normals, &j.Normals},
		{"generate-normals", f.generateNormals, &j.GenerateNormals},
		{"no-uvs", f.noUVs, &j.NoUVs},
		{"form-name-spaces", f.formNameSpaces, &j.FormNameSpaces},
		{"group-by-instance", f.groupByInstance, &j.GroupByInstance},
		{"no-replace", f.noReplace, &j.NoReplace},
		{"force-no-match", f.forceNoMatch, &j.ForceNoMatch},
		{"pass-no-match", f.passNoMatch, &j.PassNoMatch},
		{"no-load-opt", f.noLoadOpt, &j.NoLoadOpt},
		{"no-block-check", f.noBlockCheck, &j.NoBlockCheck},
		{"force-join", f.forceJoin, &j.ForceJoin},
		{"direct", f.direct, &j.Direct},
	}
	for _, b := range bools {
		if changed(b.name) {
			*b.dst = b.src
		}
	}
}
