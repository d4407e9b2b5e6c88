// Package directory filters the recycler directory.
package directory

import (
	"strings"

	"github.com/sakif/solarcycle/internal/model"
)

// Query narrows the directory. An empty field places no constraint.
type Query struct {
	Location    string
	ServiceType model.ServiceType
}

// Filter returns the verified recyclers matching q, in source order.
//
// Location matches as a case-insensitive substring. ServiceType matches
// recyclers offering exactly that service or "both". Both constraints apply
// together when both are set.
func Filter(recyclers []model.Recycler, q Query) []model.Recycler {
	location := strings.ToLower(q.Location)

	out := make([]model.Recycler, 0, len(recyclers))
	for _, r := range recyclers {
		if !r.Verified {
			continue
		}
		if location != "" && !strings.Contains(strings.ToLower(r.Location), location) {
			continue
		}
		if q.ServiceType != "" && r.ServiceType != q.ServiceType && r.ServiceType != model.ServiceBoth {
			continue
		}
		out = append(out, r)
	}
	return out
}
