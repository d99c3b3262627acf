package domain

import (
	"fmt"
	"sort"
)

// SourceSelector picks which contributing sources a resolution query
// covers. Beyond the two named selectors, any other value is an explicit
// source code such as "us" or "nc".
type SourceSelector string

const (
	// SourcePreferred restricts to the source whose submission carries the
	// globally maximum preferred weight for the product type.
	SourcePreferred SourceSelector = "preferred"

	// SourceAll keeps every contributing source.
	SourceAll SourceSelector = "all"
)

// VersionSelector picks which ordinal versions survive per source group.
type VersionSelector string

const (
	VersionFirst VersionSelector = "first"
	VersionLast  VersionSelector = "last"
	VersionAll   VersionSelector = "all"
)

// ResolvedProduct is one submission with its resolver-assigned ordinal
// version: 1-based, unique within its source for a product type, ascending
// by update time.
type ResolvedProduct struct {
	ProductSubmission

	OrdinalVersion int
}

// ResolveProducts reconstructs the per-source version history of one
// product type and applies the source and version selectors.
//
// Deleted submissions are excluded before anything else, so ordinals are
// dense 1..N over survivors only. Within a source, submissions sharing an
// update time keep the detail document's array order (stable sort); ComCat
// leaves that ordering unspecified, so the document order is the documented
// deterministic rule here. Output is ordered by source first appearance in
// the document, then by ascending ordinal. Pure: recomputed identically on
// every call.
func ResolveProducts(detail DetailEvent, productType string, source SourceSelector, version VersionSelector) ([]ResolvedProduct, error) {
	live := make([]ProductSubmission, 0, len(detail.Products[productType]))
	for _, sub := range detail.Products[productType] {
		if !sub.Deleted() {
			live = append(live, sub)
		}
	}
	if len(live) == 0 {
		return nil, fmt.Errorf("event %s has no %q product: %w", detail.ID, productType, ErrProductNotFound)
	}

	// Group by source, preserving first-appearance order explicitly rather
	// than relying on map iteration.
	groups := make(map[string][]ResolvedProduct)
	var groupOrder []string
	for _, sub := range live {
		if _, seen := groups[sub.Source]; !seen {
			groupOrder = append(groupOrder, sub.Source)
		}
		groups[sub.Source] = append(groups[sub.Source], ResolvedProduct{ProductSubmission: sub})
	}

	for _, src := range groupOrder {
		group := groups[src]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].UpdateTime.Before(group[j].UpdateTime)
		})
		for i := range group {
			group[i].OrdinalVersion = i + 1
		}
	}

	switch source {
	case SourceAll:
		// keep every group
	case SourcePreferred:
		preferred := preferredSource(live)
		groupOrder = []string{preferred}
	default:
		code := string(source)
		if _, ok := groups[code]; !ok {
			return nil, fmt.Errorf("event %s has no %q product from source %q: %w",
				detail.ID, productType, code, ErrProductNotFound)
		}
		groupOrder = []string{code}
	}

	var resolved []ResolvedProduct
	for _, src := range groupOrder {
		group := groups[src]
		switch version {
		case VersionFirst:
			resolved = append(resolved, group[0])
		case VersionLast:
			resolved = append(resolved, group[len(group)-1])
		case VersionAll:
			resolved = append(resolved, group...)
		default:
			return nil, fmt.Errorf("unknown version selector %q", version)
		}
	}
	return resolved, nil
}

// PreferredProduct resolves the single authoritative submission of a
// product type: the latest version from the source holding the maximum
// preferred weight.
func PreferredProduct(detail DetailEvent, productType string) (ResolvedProduct, error) {
	resolved, err := ResolveProducts(detail, productType, SourcePreferred, VersionLast)
	if err != nil {
		return ResolvedProduct{}, err
	}
	return resolved[0], nil
}

// preferredSource returns the source of the submission with the maximum
// preferred weight across all live submissions. On equal weights the
// earlier document position wins, keeping resolution deterministic.
func preferredSource(live []ProductSubmission) string {
	best := live[0]
	for _, sub := range live[1:] {
		if sub.PreferredWeight > best.PreferredWeight {
			best = sub
		}
	}
	return best.Source
}
