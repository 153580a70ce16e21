package rest

import (
	"net/http"

	"github.com/aaronboult/sserver"
	"github.com/evergreen-ci/gimlet"
)

////////////////////////////////////////////////////////////////////////
//
// GET /status

type StatusResponse struct {
	Revision string   `json:"revision"`
	Apps     []string `json:"apps"`
	Routes   int      `json:"routes"`
	Cache    string   `json:"cache"`
}

func (s *Service) statusHandler(w http.ResponseWriter, r *http.Request) {
	resp := &StatusResponse{
		Revision: sserver.BuildRevision,
		Apps:     []string{},
	}

	if project, err := s.Environment.GetProject(); err == nil {
		resp.Apps = project.Manifest()
	}

	if cache, err := s.Environment.GetCache(); err == nil {
		resp.Cache = cache.Name()

		if value, ok := cache.Get(sserver.RouteManifestCacheKey); ok {
			if manifest, ok := value.([]string); ok {
				resp.Routes = len(manifest)
			}
		}
	}

	gimlet.WriteJSON(w, resp)
}

////////////////////////////////////////////////////////////////////////
//
// GET /status/cache

type CacheStatusResponse struct {
	Region   string   `json:"region"`
	Count    int      `json:"count"`
	Capacity int      `json:"capacity"`
	Keys     []string `json:"keys"`
	Err      string   `json:"error,omitempty"`
}

func (s *Service) cacheStatusHandler(w http.ResponseWriter, r *http.Request) {
	resp := &CacheStatusResponse{}

	cache, err := s.Environment.GetCache()
	if err != nil {
		resp.Err = "cache region is not configured"
		gimlet.WriteJSONError(w, resp)
		return
	}

	resp.Region = cache.Name()
	resp.Count = cache.Count()
	resp.Keys = cache.Keys()

	if conf, err := s.Environment.GetConf(); err == nil {
		resp.Capacity = conf.CacheCapacity
	}

	gimlet.WriteJSON(w, resp)
}
