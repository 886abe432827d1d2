package graph

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"memory-graph-mcp/internal/models"
)

// ValidateIntegrity audits the graph for structural problems and, when
// autoFix is set, applies one corrective pass persisted as a single write.
// Fixes run in a fixed order: orphaned relations, duplicate relations
// (first occurrence wins), self-relations, missing observation lists,
// entities with blank names (cascading to their relations). A blank entity
// type is reported but has no safe automatic fix.
func (m *Manager) ValidateIntegrity(autoFix bool) (*models.IntegrityReport, error) {
	snap, err := m.store.ReadGraph()
	if err != nil {
		return nil, err
	}

	report := &models.IntegrityReport{
		EntitiesChecked:  len(snap.Entities),
		RelationsChecked: len(snap.Relations),
		Issues:           []models.IntegrityIssue{},
	}

	names := make(map[string]bool, len(snap.Entities))
	for _, e := range snap.Entities {
		names[e.Name] = true
	}

	seen := make(map[string]bool, len(snap.Relations))
	for _, r := range snap.Relations {
		if !names[r.From] {
			report.Issues = append(report.Issues, models.IntegrityIssue{
				Type:        models.IssueOrphanedRelation,
				Description: fmt.Sprintf("relation %s -[%s]-> %s references missing entity %q", r.From, r.RelationType, r.To, r.From),
			})
		}
		if !names[r.To] {
			report.Issues = append(report.Issues, models.IntegrityIssue{
				Type:        models.IssueOrphanedRelation,
				Description: fmt.Sprintf("relation %s -[%s]-> %s references missing entity %q", r.From, r.RelationType, r.To, r.To),
			})
		}
		if r.From == r.To {
			report.Issues = append(report.Issues, models.IntegrityIssue{
				Type:        models.IssueSelfRelation,
				Description: fmt.Sprintf("entity %q relates to itself via %q", r.From, r.RelationType),
			})
		}
		key := relationTriple(r)
		if seen[key] {
			report.Issues = append(report.Issues, models.IntegrityIssue{
				Type:        models.IssueDuplicateRelation,
				Description: fmt.Sprintf("duplicate relation %s -[%s]-> %s", r.From, r.RelationType, r.To),
			})
		}
		seen[key] = true
	}

	for _, e := range snap.Entities {
		switch {
		case isBlank(e.Name):
			report.Issues = append(report.Issues, models.IntegrityIssue{
				Type:        models.IssueMalformedEntity,
				Description: fmt.Sprintf("entity %q has a blank name", e.ID),
			})
		case isBlank(e.EntityType):
			report.Issues = append(report.Issues, models.IntegrityIssue{
				Type:        models.IssueMalformedEntity,
				Description: fmt.Sprintf("entity %q has a blank entity type", e.Name),
			})
		}
		if e.Observations == nil {
			report.Issues = append(report.Issues, models.IntegrityIssue{
				Type:        models.IssueMalformedEntity,
				Description: fmt.Sprintf("entity %q is missing its observations list", e.Name),
			})
		}
	}

	if !autoFix || len(report.Issues) == 0 {
		return report, nil
	}

	report.FixesApplied = m.applyFixes(snap, names)
	if len(report.FixesApplied) > 0 {
		if err := m.store.ReplaceGraph(snap.Entities, snap.Relations); err != nil {
			return nil, err
		}
		m.log.Info("integrity fixes applied",
			zap.Int("issues", len(report.Issues)),
			zap.Strings("fixes", report.FixesApplied))
	}
	return report, nil
}

// applyFixes mutates the snapshot in place and returns one summary string
// per corrective step that changed anything.
func (m *Manager) applyFixes(snap *models.KnowledgeGraph, names map[string]bool) []string {
	fixes := []string{}

	kept := snap.Relations[:0]
	orphans := 0
	for _, r := range snap.Relations {
		if !names[r.From] || !names[r.To] {
			orphans++
			continue
		}
		kept = append(kept, r)
	}
	snap.Relations = kept
	if orphans > 0 {
		fixes = append(fixes, fmt.Sprintf("Removed %d orphaned relation(s)", orphans))
	}

	seen := make(map[string]bool, len(snap.Relations))
	kept = snap.Relations[:0]
	duplicates := 0
	for _, r := range snap.Relations {
		key := relationTriple(r)
		if seen[key] {
			duplicates++
			continue
		}
		seen[key] = true
		kept = append(kept, r)
	}
	snap.Relations = kept
	if duplicates > 0 {
		fixes = append(fixes, fmt.Sprintf("Removed %d duplicate relation(s), keeping first occurrences", duplicates))
	}

	kept = snap.Relations[:0]
	selfRels := 0
	for _, r := range snap.Relations {
		if r.From == r.To {
			selfRels++
			continue
		}
		kept = append(kept, r)
	}
	snap.Relations = kept
	if selfRels > 0 {
		fixes = append(fixes, fmt.Sprintf("Removed %d self-relation(s)", selfRels))
	}

	coerced := 0
	for i := range snap.Entities {
		if snap.Entities[i].Observations == nil {
			snap.Entities[i].Observations = []string{}
			coerced++
		}
	}
	if coerced > 0 {
		fixes = append(fixes, fmt.Sprintf("Coerced missing observations to an empty list for %d entit(ies)", coerced))
	}

	blankNames := make(map[string]bool)
	keptEnts := snap.Entities[:0]
	removedEnts := 0
	for _, e := range snap.Entities {
		if isBlank(e.Name) {
			blankNames[e.Name] = true
			removedEnts++
			continue
		}
		keptEnts = append(keptEnts, e)
	}
	snap.Entities = keptEnts
	if removedEnts > 0 {
		// Removing a blank-named entity must also drop relations that
		// referenced it, or the fix would create new orphans.
		kept = snap.Relations[:0]
		cascaded := 0
		for _, r := range snap.Relations {
			if blankNames[r.From] || blankNames[r.To] {
				cascaded++
				continue
			}
			kept = append(kept, r)
		}
		snap.Relations = kept
		msg := fmt.Sprintf("Removed %d entit(ies) with blank names", removedEnts)
		if cascaded > 0 {
			msg += fmt.Sprintf(" and %d relation(s) referencing them", cascaded)
		}
		fixes = append(fixes, msg)
	}

	return fixes
}

func relationTriple(r models.Relation) string {
	return r.From + "\x00" + r.To + "\x00" + r.RelationType
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
