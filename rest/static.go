package rest

import (
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aaronboult/sserver"
	"github.com/aaronboult/sserver/conf"
	"github.com/evergreen-ci/gimlet"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

var staticFolderKeys = []string{
	conf.KeyStaticImageFolder,
	conf.KeyStaticCSSFolder,
	conf.KeyStaticJSFolder,
}

// loadStatic walks every app's static folders and publishes a map from
// URL path to file path in the cache region.
func (s *Service) loadStatic() error {
	project, cache, err := sserver.GetProjectWithCache(s.Environment)
	if err != nil {
		return errors.WithStack(err)
	}

	appFolder, ok := project.GetString(conf.KeyAppFolder)
	if !ok {
		return errors.Errorf("config value '%s' is not set", conf.KeyAppFolder)
	}

	staticMap := map[string]string{}

	for _, appName := range project.Manifest() {
		for _, folderKey := range staticFolderKeys {
			folder, ok := project.AppGetString(appName, folderKey)
			if !ok {
				continue
			}

			staticDir := filepath.Join(project.Root(), appFolder, appName, folder)
			err := filepath.WalkDir(staticDir, func(filePath string, entry fs.DirEntry, err error) error {
				if err != nil || entry.IsDir() {
					return nil
				}

				rel, err := filepath.Rel(staticDir, filePath)
				if err != nil {
					return errors.WithStack(err)
				}

				key := path.Join("/", appName, folder, filepath.ToSlash(rel))
				staticMap[key] = filePath
				return nil
			})
			if err != nil {
				return errors.Wrapf(err, "problem walking static folder for app '%s'", appName)
			}
		}
	}

	grip.Info(message.Fields{
		"message": "loaded static files",
		"files":   len(staticMap),
	})

	return errors.Wrap(cache.Put(sserver.StaticMapCacheKey, staticMap),
		"problem caching static file map")
}

// staticFilePath resolves a request path against the cached static
// map, reloading the map once when the path is missing.
func (s *Service) staticFilePath(requestPath string) (string, bool) {
	cache, err := s.Environment.GetCache()
	if err != nil {
		return "", false
	}

	lookup := func() (string, bool) {
		value, ok := cache.Get(sserver.StaticMapCacheKey)
		if !ok {
			return "", false
		}

		staticMap, ok := value.(map[string]string)
		if !ok {
			return "", false
		}

		filePath, ok := staticMap[requestPath]
		return filePath, ok
	}

	if filePath, ok := lookup(); ok {
		return filePath, true
	}

	// the file may have appeared since the last load
	if err := s.loadStatic(); err != nil {
		grip.Warning(message.WrapError(err, "problem reloading static files"))
		return "", false
	}

	return lookup()
}

////////////////////////////////////////////////////////////////////////
//
// GET /static/{path}

func (s *Service) staticHandler(w http.ResponseWriter, r *http.Request) {
	requestPath := path.Clean("/" + gimlet.GetVars(r)["path"])

	filePath, ok := s.staticFilePath(requestPath)
	if !ok {
		writeNotFound(w)
		return
	}

	contents, err := os.ReadFile(filePath)
	if err != nil {
		grip.Error(message.WrapError(err, message.Fields{
			"message": "problem reading static file",
			"path":    filePath,
		}))
		writeInternalError(w)
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(filePath))
	if contentType == "" {
		contentType = http.DetectContentType(contents)
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if !strings.EqualFold(r.Method, http.MethodHead) {
		_, _ = w.Write(contents)
	}
}
