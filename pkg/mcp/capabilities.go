package mcp

// instructions is the blurb returned with the capability record, telling an
// LLM-style client what this server is for.
const instructions = "Ontology graph engine for a cybernetics knowledge base: " +
	"query entities and relationships, enumerate paths, analyze hierarchy and " +
	"centrality, and browse the structured outline via cyberon:// resources."

// capabilities builds the capability record shared by "initialize" and
// "server/capabilities" (spec.md §4.3).
func capabilities(serverName, serverVersion string) CapabilitiesResult {
	return CapabilitiesResult{
		ServerInfo:      ServerInfo{Name: serverName, Version: serverVersion},
		ProtocolVersion: ProtocolVersion,
		Supports:        Supports{Resources: true, Tools: true, Prompts: true},
		Instructions:    instructions,
	}
}

// RegisterCapabilities wires "initialize" and "server/capabilities" onto d.
// Both return the identical capability record; initialize accepts the
// caller's protocolVersion and clientInfo but neither reads nor logs them,
// matching spec.md's "capability negotiation happens on initialize" note.
func RegisterCapabilities(d *Dispatcher, serverName, serverVersion string) {
	handler := func(params map[string]any, transportID string) (any, error) {
		return capabilities(serverName, serverVersion), nil
	}
	d.RegisterMethod("initialize", handler)
	d.RegisterMethod("server/capabilities", handler)

	// notifications/initialized is accepted as a no-op notification (no
	// response body) — SPEC_FULL §4's supplemented kraklabs-mie behavior.
	d.RegisterMethod("notifications/initialized", func(params map[string]any, transportID string) (any, error) {
		return nil, nil
	})
}
