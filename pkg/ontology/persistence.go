package ontology

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cyberonlab/ontology-engine/pkg/graph"
)

// ErrNoSourcePath is returned by SaveChanges when the engine was built
// programmatically (not via LoadFromFile) and has nowhere to save to.
var ErrNoSourcePath = errors.New("ontology: engine has no configured source path")

// LoadFromFile builds a QueryEngine from the node-link JSON document at
// path (spec.md §6) and remembers path as the target of future
// SaveChanges calls.
func LoadFromFile(path string) (*QueryEngine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	q, err := LoadDocument(data)
	if err != nil {
		return nil, err
	}
	q.sourcePath = path
	return q, nil
}

// LoadDocument parses a node-link JSON document into a fresh QueryEngine.
// Unknown top-level keys, and unknown keys nested under
// "knowledge_graph", are preserved for a bit-exact SaveChanges round-trip.
func LoadDocument(data []byte) (*QueryEngine, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	q := New()

	if raw, ok := doc["structured_ontology"].(map[string]any); ok {
		for key, v := range raw {
			num, err := strconv.Atoi(key)
			if err != nil {
				continue
			}
			sectionMap, _ := v.(map[string]any)
			title, _ := sectionMap["title"].(string)
			subsections := make(map[string][]string)
			if subsRaw, ok := sectionMap["subsections"].(map[string]any); ok {
				for subName, itemsRaw := range subsRaw {
					items := []string{}
					if arr, ok := itemsRaw.([]any); ok {
						for _, it := range arr {
							if s, ok := it.(string); ok {
								items = append(items, s)
							}
						}
					}
					subsections[subName] = items
				}
			}
			q.outline[num] = Section{Title: title, Subsections: subsections}
		}
	}

	if kg, ok := doc["knowledge_graph"].(map[string]any); ok {
		for k, v := range kg {
			if k != "nodes" && k != "edges" && k != "directed" && k != "multigraph" {
				q.kgExtra[k] = v
			}
		}
		if nodesRaw, ok := kg["nodes"].([]any); ok {
			for _, nRaw := range nodesRaw {
				nodeMap, _ := nRaw.(map[string]any)
				id, _ := nodeMap["id"].(string)
				if id == "" {
					continue
				}
				attrs := make(map[string]any, len(nodeMap))
				for k, v := range nodeMap {
					attrs[k] = v
				}
				_ = q.store.AddNode(graph.NodeID(id), attrs)
			}
		}
		if edgesRaw, ok := kg["edges"].([]any); ok {
			for _, eRaw := range edgesRaw {
				edgeMap, _ := eRaw.(map[string]any)
				source, _ := edgeMap["source"].(string)
				target, _ := edgeMap["target"].(string)
				label, _ := edgeMap["label"].(string)
				if source == "" || target == "" {
					continue
				}
				attrs := make(map[string]any, len(edgeMap))
				for k, v := range edgeMap {
					if k != "source" && k != "target" {
						attrs[k] = v
					}
				}
				_ = q.store.AddEdge(graph.NodeID(source), graph.NodeID(target), label, attrs)
			}
		}
	}

	for k, v := range doc {
		if k != "structured_ontology" && k != "knowledge_graph" {
			q.extra[k] = v
		}
	}
	return q, nil
}

// SaveChanges serializes the graph and outline back into the node-link
// document shape and writes it atomically to the path LoadFromFile was
// given. Returns ErrNoSourcePath if the engine has none.
func (q *QueryEngine) SaveChanges() (bool, error) {
	q.mu.RLock()
	path := q.sourcePath
	q.mu.RUnlock()
	if path == "" {
		return false, ErrNoSourcePath
	}
	return q.SaveToFile(path)
}

// SaveToFile writes the current document to an arbitrary path, via a
// temp file in the same directory followed by an atomic rename — the
// same write-then-rename shape the teacher corpus uses for durable
// writes rather than an in-place os.WriteFile.
func (q *QueryEngine) SaveToFile(path string) (bool, error) {
	q.mu.RLock()
	doc := q.buildDocument()
	q.mu.RUnlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return false, err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".ontology-*.tmp")
	if err != nil {
		return false, err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return false, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return false, err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return false, err
	}
	return true, nil
}

func (q *QueryEngine) buildDocument() map[string]any {
	structuredOntology := make(map[string]any, len(q.outline))
	for num, section := range q.outline {
		subsections := make(map[string]any, len(section.Subsections))
		for name, items := range section.Subsections {
			subsections[name] = items
		}
		structuredOntology[strconv.Itoa(num)] = map[string]any{
			"title":       section.Title,
			"subsections": subsections,
		}
	}

	nodes := make([]map[string]any, 0, q.store.NodeCount())
	for _, n := range q.store.AllNodes() {
		node := make(map[string]any, len(n.Attrs)+1)
		for k, v := range n.Attrs {
			node[k] = v
		}
		node["id"] = string(n.ID)
		nodes = append(nodes, node)
	}

	edges := make([]map[string]any, 0, q.store.EdgeCount())
	for _, e := range q.store.AllEdges() {
		edge := make(map[string]any, len(e.Attrs)+2)
		for k, v := range e.Attrs {
			edge[k] = v
		}
		edge["source"] = string(e.Src)
		edge["target"] = string(e.Dst)
		edges = append(edges, edge)
	}

	kg := map[string]any{
		"directed":   true,
		"multigraph": false,
		"graph":      map[string]any{},
		"nodes":      nodes,
		"edges":      edges,
	}
	for k, v := range q.kgExtra {
		kg[k] = v
	}

	doc := map[string]any{
		"structured_ontology": structuredOntology,
		"knowledge_graph":     kg,
	}
	for k, v := range q.extra {
		doc[k] = v
	}
	return doc
}
