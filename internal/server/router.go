package server

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/anyroot/anyroot/internal/config"
)

type Mount struct {
	ID        string
	URLPrefix string
	Dir       string
}

// Router matches URL paths to mounts, longest prefix first. With no
// mounts configured the whole site root is served at "/".
type Router struct {
	mounts []Mount
}

func NewRouter(cfg *config.Config) (*Router, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	mounts := make([]Mount, 0, len(cfg.Site.Mounts)+1)
	for i, mount := range cfg.Site.Mounts {
		mounts = append(mounts, Mount{
			ID:        fmt.Sprintf("mount-%d", i),
			URLPrefix: mount.URLPrefix,
			Dir:       mount.Dir,
		})
	}
	if len(mounts) == 0 {
		mounts = append(mounts, Mount{ID: "root", URLPrefix: "/", Dir: ""})
	}

	sort.SliceStable(mounts, func(i, j int) bool {
		if len(mounts[i].URLPrefix) == len(mounts[j].URLPrefix) {
			return mounts[i].ID < mounts[j].ID
		}
		return len(mounts[i].URLPrefix) > len(mounts[j].URLPrefix)
	})

	return &Router{mounts: mounts}, nil
}

func (r *Router) Match(path string) (Mount, bool) {
	for _, mount := range r.mounts {
		if strings.HasPrefix(path, mount.URLPrefix) {
			return mount, true
		}
	}
	return Mount{}, false
}
