package gen

// FeatureStage describes the maturity of a generation feature.
type FeatureStage uint8

// Feature stages.
const (
	Experimental FeatureStage = iota
	Alpha
	Beta
	Stable
)

// Feature toggles an optional generation capability.
type Feature struct {
	Name        string
	Stage       FeatureStage
	Default     bool
	Description string
}

var (
	// FeatureReport includes the reachability report with the result.
	FeatureReport = Feature{
		Name:        "report",
		Stage:       Stable,
		Default:     true,
		Description: "Report flags nodes unreachable by any button, rule, input flow or connection",
	}

	// FeatureTimestamp embeds a generation timestamp comment in the
	// program header. Cosmetic; excluded from equivalence checks.
	FeatureTimestamp = Feature{
		Name:        "timestamp",
		Stage:       Stable,
		Default:     true,
		Description: "Timestamp embeds the generation time as a header comment",
	}

	// FeatureLoggingSetup emits logging configuration in the generated
	// program so persistence downgrades and dispatch misses are logged.
	FeatureLoggingSetup = Feature{
		Name:        "logging",
		Stage:       Stable,
		Default:     true,
		Description: "Logging configures the generated program's logger",
	}

	// FeatureDotenv makes the generated program read its token from a
	// .env file in addition to the environment.
	FeatureDotenv = Feature{
		Name:        "dotenv",
		Stage:       Beta,
		Default:     false,
		Description: "Dotenv loads BOT_TOKEN from a .env file at startup",
	}
)

// allFeatures lists every known feature in a fixed order, used for
// default lookups and CLI listings.
var allFeatures = []Feature{
	FeatureReport,
	FeatureTimestamp,
	FeatureLoggingSetup,
	FeatureDotenv,
}

// Features returns all known features.
func Features() []Feature {
	out := make([]Feature, len(allFeatures))
	copy(out, allFeatures)
	return out
}
