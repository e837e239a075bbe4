// Package resourcekit is the plugin backbone of a data-connector framework.
//
// It provides three cooperating pieces. The codec engine (pkg/codec)
// performs type-directed bidirectional conversion between typed records and
// plain nested structures, driven by explicit record descriptors rather
// than runtime struct introspection. The resource registry
// (pkg/resource/registry) discovers installed protocol and provider
// packages through declarative YAML manifests, builds (kind, version)
// lookup tables for datasets and linked services, and materializes typed
// plugin instances from configuration maps. The record contracts
// (pkg/resource) define the operation surfaces concrete plugins implement
// and the operation report produced around every invocation.
//
// The resourcekit CLI (cmd/resourcekit) lists discovered resources and
// validates configurations against them.
package resourcekit
