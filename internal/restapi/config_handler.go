package restapi

import (
	"net/http"

	"gpxracer.app/internal/buildinfo"
	"gpxracer.app/internal/models"
)

func (api *RestAPI) configHandler(w http.ResponseWriter, r *http.Request) {
	gitProps := models.GitProperties{
		GitBranch:         buildinfo.Branch,
		GitBuildTime:      buildinfo.BuildTime,
		GitBuildVersion:   buildinfo.Version,
		GitCommitId:       buildinfo.CommitHash,
		GitCommitIdAbbrev: buildinfo.ShortHash(),
		GitDirty:          buildinfo.Dirty,
	}

	configEntry := models.ConfigModel{
		GitProperties: gitProps,
		Id:            "gpxracer",
		Name:          "GPX Racer",
		Env:           api.Config.Env.String(),
		Settings: models.RaceSettings{
			AutoplayDurationMs: api.Config.AutoplayDuration.Milliseconds(),
			TickIntervalMs:     api.Config.TickInterval.Milliseconds(),
			MaxUploadBytes:     api.Config.MaxUploadBytes,
			RateLimit:          api.Config.RateLimit,
			Route1Color:        models.Route1Color,
			Route2Color:        models.Route2Color,
		},
	}

	api.sendResponse(w, r, models.NewEntryResponse(configEntry, api.Clock))
}
