package perf

// Settings configures the engine. EnableInstancing is the caller's
// preference; the Potato tier suspends instancing without changing it.
type Settings struct {
	Level                  Tier    `yaml:"level"`
	EnableLOD              bool    `yaml:"enable_lod"`
	EnableInstancing       bool    `yaml:"enable_instancing"`
	EnableFrustumCulling   bool    `yaml:"enable_frustum_culling"`
	EnableMemoryManagement bool    `yaml:"enable_memory_management"`
	AdaptiveQuality        bool    `yaml:"adaptive_quality"`
	MaxObjects             int     `yaml:"max_objects"`
	TargetFPS              float64 `yaml:"target_fps"`

	// Dead zones, as fractions. Zero keeps hard cutoffs.
	LODHysteresis float32 `yaml:"lod_hysteresis"`
	FPSHysteresis float64 `yaml:"fps_hysteresis"`
}

// DefaultSettings enables every feature at the High tier.
func DefaultSettings() Settings {
	return Settings{
		Level:                  High,
		EnableLOD:              true,
		EnableInstancing:       true,
		EnableFrustumCulling:   true,
		EnableMemoryManagement: true,
		AdaptiveQuality:        true,
		MaxObjects:             1000,
		TargetFPS:              60,
	}
}

// SettingsUpdate is a partial settings change. Nil fields are kept.
type SettingsUpdate struct {
	Level                  *Tier
	EnableLOD              *bool
	EnableInstancing       *bool
	EnableFrustumCulling   *bool
	EnableMemoryManagement *bool
	AdaptiveQuality        *bool
	MaxObjects             *int
	TargetFPS              *float64
	LODHysteresis          *float32
	FPSHysteresis          *float64
}

func (u SettingsUpdate) apply(s Settings) Settings {
	if u.Level != nil {
		s.Level = *u.Level
	}
	if u.EnableLOD != nil {
		s.EnableLOD = *u.EnableLOD
	}
	if u.EnableInstancing != nil {
		s.EnableInstancing = *u.EnableInstancing
	}
	if u.EnableFrustumCulling != nil {
		s.EnableFrustumCulling = *u.EnableFrustumCulling
	}
	if u.EnableMemoryManagement != nil {
		s.EnableMemoryManagement = *u.EnableMemoryManagement
	}
	if u.AdaptiveQuality != nil {
		s.AdaptiveQuality = *u.AdaptiveQuality
	}
	if u.MaxObjects != nil {
		s.MaxObjects = *u.MaxObjects
	}
	if u.TargetFPS != nil {
		s.TargetFPS = *u.TargetFPS
	}
	if u.LODHysteresis != nil {
		s.LODHysteresis = *u.LODHysteresis
	}
	if u.FPSHysteresis != nil {
		s.FPSHysteresis = *u.FPSHysteresis
	}
	return s
}

// Diff returns the update that turns from into to. Unchanged fields stay
// nil, so a reloaded config only touches what was edited.
func Diff(from, to Settings) SettingsUpdate {
	var u SettingsUpdate
	if from.Level != to.Level {
		u.Level = &to.Level
	}
	if from.EnableLOD != to.EnableLOD {
		u.EnableLOD = &to.EnableLOD
	}
	if from.EnableInstancing != to.EnableInstancing {
		u.EnableInstancing = &to.EnableInstancing
	}
	if from.EnableFrustumCulling != to.EnableFrustumCulling {
		u.EnableFrustumCulling = &to.EnableFrustumCulling
	}
	if from.EnableMemoryManagement != to.EnableMemoryManagement {
		u.EnableMemoryManagement = &to.EnableMemoryManagement
	}
	if from.AdaptiveQuality != to.AdaptiveQuality {
		u.AdaptiveQuality = &to.AdaptiveQuality
	}
	if from.MaxObjects != to.MaxObjects {
		u.MaxObjects = &to.MaxObjects
	}
	if from.TargetFPS != to.TargetFPS {
		u.TargetFPS = &to.TargetFPS
	}
	if from.LODHysteresis != to.LODHysteresis {
		u.LODHysteresis = &to.LODHysteresis
	}
	if from.FPSHysteresis != to.FPSHysteresis {
		u.FPSHysteresis = &to.FPSHysteresis
	}
	return u
}

// Empty reports whether the update changes nothing.
func (u SettingsUpdate) Empty() bool {
	return u == SettingsUpdate{}
}
