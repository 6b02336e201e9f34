package tools

import (
	"context"
	"strconv"
	"strings"
)

// Definition describes one callable tool in the JSON-schema shape chat SDKs
// and MCP clients expect.
type Definition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
}

// InputSchema is the argument schema for one tool
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes a single argument
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

const (
	entityArgDescription = "Entity name, e.g. 'Customer'. Case-insensitive. Defaults to the entity the user is currently looking at."
	pairsDescription     = "Property pairs as key1=value1;key2=value2. Keys are case-insensitive member names. May also be a JSON object when a value contains ';' or '='."
)

// Definitions returns the schema metadata for every tool the dispatcher can
// Call. Descriptions are written for the model: they say when to reach for
// each tool, not how it is implemented.
func (d *Dispatcher) Definitions() []Definition {
	return []Definition{
		{
			Name:        "list_entities",
			Description: "LIST ALL BUSINESS ENTITIES with their property and relationship names. Use this to see what can be queried or changed.",
			InputSchema: InputSchema{
				Type: "object",
			},
		},
		{
			Name:        "describe_entity",
			Description: "DESCRIBE ONE ENTITY in full: every property with its type, required flag and allowed values, every relationship with its target. Call this before the first query or create against an unfamiliar entity.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"entity": {Type: "string", Description: entityArgDescription},
				},
			},
		},
		{
			Name:        "query_entity",
			Description: "FIND RECORDS of an entity. Text properties match by substring, other properties by exact value, relationships by the referenced record's display name. An empty filter returns the first records.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"entity": {Type: "string", Description: entityArgDescription},
					"filter": {Type: "string", Description: "Clauses as key1=value1;key2=value2, e.g. 'Name=chai' or 'Category=Beverages;Discontinued=false'. Empty matches everything."},
					"limit":  {Type: "integer", Description: "Maximum records to return, default 25."},
				},
			},
		},
		{
			Name:        "create_entity",
			Description: "CREATE A RECORD. Provide every required property. Relationship values are matched against display names of the target entity and must identify exactly one record. Nothing is written when any value fails.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"entity":     {Type: "string", Description: entityArgDescription},
					"properties": {Type: "string", Description: pairsDescription},
				},
				Required: []string{"properties"},
			},
		},
		{
			Name:        "update_entity",
			Description: "UPDATE A RECORD. The identifier is the record's id, or part of its display name when it matches exactly one record. Only the given properties change. When the user has the record open, the identifier may be omitted.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"entity":     {Type: "string", Description: entityArgDescription},
					"identifier": {Type: "string", Description: "Record id, or a fragment of its display name."},
					"properties": {Type: "string", Description: pairsDescription},
				},
				Required: []string{"properties"},
			},
		},
		{
			Name:        "open_entity_view",
			Description: "SHOW RECORDS TO THE USER by opening a list view in the application, optionally pre-filtered. Use this when the user asks to see data on screen; it changes nothing.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"entity": {Type: "string", Description: entityArgDescription},
					"filter": {Type: "string", Description: "Optional filter clauses, same form as query_entity."},
				},
			},
		},
	}
}

// Call dispatches a named tool with decoded JSON arguments. An unknown tool
// name came from the model, so it is answered with text like every other
// recoverable mistake.
func (d *Dispatcher) Call(ctx context.Context, name string, args map[string]any) (string, error) {
	switch name {
	case "list_entities":
		return d.ListEntities(ctx)

	case "describe_entity":
		return d.DescribeEntity(ctx, stringArg(args, "entity"))

	case "query_entity":
		pairs, display, err := pairsArg(args, "filter")
		if err != nil {
			return asText("", err)
		}
		return asText(d.query(ctx, stringArg(args, "entity"), pairs, display, intArg(args, "limit")))

	case "create_entity":
		pairs, _, err := pairsArg(args, "properties")
		if err != nil {
			return asText("", err)
		}
		return asText(d.create(ctx, stringArg(args, "entity"), pairs))

	case "update_entity":
		pairs, _, err := pairsArg(args, "properties")
		if err != nil {
			return asText("", err)
		}
		return asText(d.update(ctx, stringArg(args, "entity"), stringArg(args, "identifier"), pairs))

	case "open_entity_view":
		pairs, display, err := pairsArg(args, "filter")
		if err != nil {
			return asText("", err)
		}
		return asText(d.openView(ctx, stringArg(args, "entity"), pairs, display))

	default:
		return asText("", &NotFoundError{What: "tool", Name: name, Alternatives: d.toolNames()})
	}
}

func (d *Dispatcher) toolNames() []string {
	defs := d.Definitions()
	names := make([]string, len(defs))
	for i, def := range defs {
		names[i] = def.Name
	}
	return names
}

// stringArg reads an optional string argument
func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// intArg reads an optional integer argument. JSON numbers decode as float64;
// some clients send numbers as strings.
func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return 0
}

// pairsArg reads a filter or properties argument in either accepted form:
// the flat key=value;... string or a structured object. The second return is
// the display form used in result messages.
func pairsArg(args map[string]any, key string) ([]Pair, string, error) {
	switch v := args[key].(type) {
	case nil:
		return nil, "", nil
	case string:
		pairs, err := ParsePairs(v)
		return pairs, v, err
	case map[string]any:
		pairs := PairsFromMap(v)
		return pairs, displayFilter(pairs), nil
	default:
		return nil, "", &ValidationError{
			Message: "Argument " + strconv.Quote(key) + " must be a key=value;... string or an object of key/value pairs.",
		}
	}
}
