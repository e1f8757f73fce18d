// Package topology loads map documents (TopoJSON, GeoJSON and shapefiles)
// and derives the region lists and drill-down paths built on them.
package topology

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/choropleth/internal/model"
)

// Prober checks whether a path exists.
type Prober interface {
	Exists(ctx context.Context, path string) (bool, error)
}

// DefaultCollectionRoot is where the map collection package is served.
const DefaultCollectionRoot = "/node_modules/@highcharts/map-collection"

// Collection locates maps inside a served map collection.
type Collection struct {
	Root string
}

// DefaultCollection is the collection served under /node_modules.
var DefaultCollection = Collection{Root: DefaultCollectionRoot}

var topoSuffix = regexp.MustCompile(`(?i)\.topo\.json$`)

func (c Collection) root() string {
	r := strings.TrimRight(c.Root, "/")
	if r == "" {
		return DefaultCollectionRoot
	}
	return r
}

// DefaultMap is the world map rendered when nothing else is selected.
func (c Collection) DefaultMap() string {
	return c.root() + "/custom/world.topo.json"
}

// Label returns a short display label for a topology path: the custom
// collection prefix and any .topo.json suffix are removed.
func (c Collection) Label(path string) string {
	label := strings.Replace(path, c.root()+"/custom/", "", 1)
	return topoSuffix.ReplaceAllString(label, "")
}

// CountryCandidates returns the drill-down paths to probe for a region, in
// order: ISO-2 topo and geo, ISO-3 topo and geo, then the region key.
// Codes are lowercased to match the collection layout. Duplicates are
// dropped.
func (c Collection) CountryCandidates(r model.Region) []string {
	countries := c.root() + "/countries/"
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, code := range []string{r.ISOA2, r.ISOA3} {
		code = strings.ToLower(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		add(countries + code + "/" + code + "-all.topo.json")
		add(countries + code + "/" + code + "-all.geo.json")
	}
	if key := strings.ToLower(strings.TrimSpace(r.Key)); key != "" {
		add(countries + key + "/" + key + "-all.topo.json")
	}
	return out
}

// Probe returns the first drill-down candidate for the region that exists,
// or "" when none does. Probe failures are skipped; only cancellation of ctx
// is returned as an error.
func (c Collection) Probe(ctx context.Context, prober Prober, r model.Region) (string, error) {
	for _, candidate := range c.CountryCandidates(r) {
		ok, err := prober.Exists(ctx, candidate)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			zap.L().Debug("probe failed",
				zap.String("component", "topology"),
				zap.String("region", r.Key),
				zap.String("path", candidate),
				zap.Error(err),
			)
			continue
		}
		if ok {
			return candidate, nil
		}
	}
	return "", nil
}
