package ontology

import (
	"sort"
	"strings"
)

// TopicMatch is one hit of FindSectionByTopic.
type TopicMatch struct {
	Section      int
	Title        string
	TitleMatch   bool
	Subsections  map[string]string // subsection name -> match kind ("subsection_title" or "item")
}

// FindSectionByTopic scans the structured outline for topic (case-
// insensitive substring) in a section title, subsection name, or item.
func (q *QueryEngine) FindSectionByTopic(topic string) []TopicMatch {
	q.mu.RLock()
	defer q.mu.RUnlock()

	lowerTopic := strings.ToLower(topic)
	var hits []TopicMatch

	for num, section := range q.outline {
		match := TopicMatch{Section: num, Title: section.Title, Subsections: make(map[string]string)}
		found := false

		if strings.Contains(strings.ToLower(section.Title), lowerTopic) {
			match.TitleMatch = true
			found = true
		}
		for name, items := range section.Subsections {
			if strings.Contains(strings.ToLower(name), lowerTopic) {
				match.Subsections[name] = "subsection_title"
				found = true
				continue
			}
			for _, item := range items {
				if strings.Contains(strings.ToLower(item), lowerTopic) {
					match.Subsections[name] = "item"
					found = true
					break
				}
			}
		}
		if found {
			hits = append(hits, match)
		}
	}
	return hits
}

// GetSection returns one outline section by number.
func (q *QueryEngine) GetSection(sectionNum int) (Section, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	section, ok := q.outline[sectionNum]
	return section, ok
}

// SectionSummary is one entry of Sections: a section number and title,
// with no subsection content.
type SectionSummary struct {
	Number int
	Title  string
}

// Sections returns every outline section's number and title, sorted by
// number, so callers (resources/list's seed catalog) can enumerate the
// structured outline without reaching into the private outline map.
func (q *QueryEngine) Sections() []SectionSummary {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([]SectionSummary, 0, len(q.outline))
	for num, section := range q.outline {
		out = append(out, SectionSummary{Number: num, Title: section.Title})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// GetSubsectionContent does a case-insensitive lookup of one subsection's
// items within a section.
func (q *QueryEngine) GetSubsectionContent(sectionNum int, subsectionName string) ([]string, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	section, ok := q.outline[sectionNum]
	if !ok {
		return nil, false
	}
	lowerName := strings.ToLower(subsectionName)
	for name, items := range section.Subsections {
		if strings.ToLower(name) == lowerName {
			out := make([]string, len(items))
			copy(out, items)
			return out, true
		}
	}
	return nil, false
}

// Summary is the result of GenerateOntologySummary.
type Summary struct {
	NodeCount          int
	EdgeCount          int
	EntityTypes        map[string]int
	RelationshipTypes  map[string]int
	CentralEntities    []CentralEntity
	Sections           int
	Subsections        int
}

// GenerateOntologySummary assembles a snapshot of graph size, type
// distributions, the top-5 central entities, and outline shape.
func (q *QueryEngine) GenerateOntologySummary() Summary {
	q.mu.RLock()
	nodeCount := q.store.NodeCount()
	edgeCount := q.store.EdgeCount()
	sections := len(q.outline)
	subsections := 0
	for _, s := range q.outline {
		subsections += len(s.Subsections)
	}
	q.mu.RUnlock()

	return Summary{
		NodeCount:         nodeCount,
		EdgeCount:         edgeCount,
		EntityTypes:       q.GetEntityTypes(),
		RelationshipTypes: q.GetRelationshipTypes(),
		CentralEntities:   q.GetCentralEntities(5, ""),
		Sections:          sections,
		Subsections:       subsections,
	}
}
