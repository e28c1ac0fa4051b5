package models

type GitProperties struct {
	GitBranch         string `json:"git.branch"`
	GitBuildTime      string `json:"git.build.time"`
	GitBuildVersion   string `json:"git.build.version"`
	GitCommitId       string `json:"git.commit.id"`
	GitCommitIdAbbrev string `json:"git.commit.id.abbrev"`
	GitDirty          string `json:"git.dirty"`
}

// RaceSettings are the server-side knobs the web client needs to know.
type RaceSettings struct {
	AutoplayDurationMs int64  `json:"autoplayDurationMs"`
	TickIntervalMs     int64  `json:"tickIntervalMs"`
	MaxUploadBytes     int64  `json:"maxUploadBytes"`
	RateLimit          int    `json:"rateLimit"`
	Route1Color        string `json:"route1Color"`
	Route2Color        string `json:"route2Color"`
}

type ConfigModel struct {
	GitProperties GitProperties `json:"gitProperties"`
	Id            string        `json:"id"`
	Name          string        `json:"name"`
	Env           string        `json:"env"`
	Settings      RaceSettings  `json:"settings"`
}
