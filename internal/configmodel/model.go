// Package configmodel holds the data model shared by the config loader,
// the storage tiers and the serving pipeline: Environment,
// EnvironmentType, cache keys and the wire-stable Writable* forms used
// for the L2 binary codec.
package configmodel

import "encoding/json"

// Environment is a named configuration document, fully merged
// (global ⊕ env-type ⊕ own config_data) at a given commit.
type Environment struct {
	Name       string          `json:"Environment"`
	EnvType    string          `json:"EnvironmentType,omitempty"`
	ConfigData json.RawMessage `json:"ConfigData"`
}

// EnvironmentType is a shared overlay keyed by name (file stem). The
// special type "global" applies to every environment.
type EnvironmentType struct {
	Name       string
	ConfigData json.RawMessage
}

// GlobalTypeName is the EnvironmentType name applied to every environment.
const GlobalTypeName = "global"

// EnvironmentDescription is the (name, type) pair used for listings,
// shipped without config_data.
type EnvironmentDescription struct {
	Name string `json:"Name"`
	Type string `json:"Type,omitempty"`
}

// Listing is the result of a full find() scan, reduced to descriptions.
type Listing []EnvironmentDescription

// WritableEnvironment is the msgpack-tagged form of Environment stored in
// the L2 binary envelope. ConfigData travels as a JSON string so the
// outer msgpack schema never changes shape when config_data does.
type WritableEnvironment struct {
	Name       string `msgpack:"name"`
	EnvType    string `msgpack:"env_type"`
	ConfigData string `msgpack:"config_data"`
}

// ToWritable converts an Environment to its wire form.
func (e Environment) ToWritable() WritableEnvironment {
	return WritableEnvironment{
		Name:       e.Name,
		EnvType:    e.EnvType,
		ConfigData: string(e.ConfigData),
	}
}

// FromEnvironment reconstructs an Environment from its wire form.
func (w WritableEnvironment) FromEnvironment() Environment {
	return Environment{
		Name:       w.Name,
		EnvType:    w.EnvType,
		ConfigData: json.RawMessage(w.ConfigData),
	}
}

// WritableEnvironmentDescription mirrors EnvironmentDescription for the
// wire envelope.
type WritableEnvironmentDescription struct {
	Name string `msgpack:"name"`
	Type string `msgpack:"type"`
}

// WritableEnvironmentListing is the msgpack-tagged form of Listing.
type WritableEnvironmentListing struct {
	Envs []WritableEnvironmentDescription `msgpack:"envs"`
}

// ToWritable converts a Listing to its wire form.
func (l Listing) ToWritable() WritableEnvironmentListing {
	out := WritableEnvironmentListing{Envs: make([]WritableEnvironmentDescription, 0, len(l))}
	for _, d := range l {
		out.Envs = append(out.Envs, WritableEnvironmentDescription{Name: d.Name, Type: d.Type})
	}
	return out
}

// FromListing reconstructs a Listing from its wire form.
func (w WritableEnvironmentListing) FromListing() Listing {
	out := make(Listing, 0, len(w.Envs))
	for _, d := range w.Envs {
		out = append(out, EnvironmentDescription{Name: d.Name, Type: d.Type})
	}
	return out
}
