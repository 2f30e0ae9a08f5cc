// Copyright 2025 Edgeo SCADA
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package uacore

import (
	"fmt"
	"log/slog"
	"sync"
)

// AddressSpace is the registry and multi-index over the nodes a server
// exposes. Nodes are created through CreateNode during load; queries are
// safe for concurrent use with registration guarded by a single writer
// lock so no index is observed mid-insert.
type AddressSpace struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	metrics *Metrics

	maxBrowseDepth int

	nodeByID map[string]Node
	aliases  map[string]NodeID

	// Objects and Variables share one browse-name index: variables are
	// browsable by name alongside objects.
	objectsByBrowseName       map[string]Node
	objectTypesByBrowseName   map[string]Node
	variableTypesByBrowseName map[string]Node
	dataTypesByBrowseName     map[string]Node

	referenceTypesByBrowseName  map[string]*ReferenceTypeNode
	referenceTypesByInverseName map[string]*ReferenceTypeNode
}

// NewAddressSpace creates an empty address space.
func NewAddressSpace(opts ...SpaceOption) *AddressSpace {
	options := defaultSpaceOptions()
	for _, opt := range opts {
		opt(options)
	}

	return &AddressSpace{
		logger:                      options.logger,
		metrics:                     options.metrics,
		maxBrowseDepth:              options.maxBrowseDepth,
		nodeByID:                    make(map[string]Node),
		aliases:                     make(map[string]NodeID),
		objectsByBrowseName:         make(map[string]Node),
		objectTypesByBrowseName:     make(map[string]Node),
		variableTypesByBrowseName:   make(map[string]Node),
		dataTypesByBrowseName:       make(map[string]Node),
		referenceTypesByBrowseName:  make(map[string]*ReferenceTypeNode),
		referenceTypesByInverseName: make(map[string]*ReferenceTypeNode),
	}
}

// CreateNode constructs a node from a definition, registers it and wires
// its references. It is the single entry point loaders use to populate the
// space. A failure signals a corrupt load and must abort it.
func (as *AddressSpace) CreateNode(def NodeDefinition) (Node, error) {
	if def.NodeID.IsNull() {
		return nil, ErrMissingNodeID
	}
	if def.BrowseName.Name == "" {
		return nil, fmt.Errorf("%w: node %s", ErrMissingBrowseName, def.NodeID)
	}

	node, err := newNode(def)
	if err != nil {
		return nil, err
	}

	if err := as.Register(node); err != nil {
		return nil, err
	}

	for _, ref := range def.References {
		if err := as.AddReference(def.NodeID, ref); err != nil {
			return nil, err
		}
	}

	as.logger.Debug("node created",
		slog.String("node_id", def.NodeID.String()),
		slog.String("class", def.NodeClass.String()),
		slog.String("browse_name", def.BrowseName.Name))

	return node, nil
}

// Register places a node into the primary index and the browse-name index
// determined by its node class. Registering the same NodeID twice is a
// construction bug.
func (as *AddressSpace) Register(node Node) error {
	id := node.NodeID()
	if id.IsNull() {
		return ErrMissingNodeID
	}
	name := node.BrowseName().Name
	if name == "" {
		return fmt.Errorf("%w: node %s", ErrMissingBrowseName, id)
	}

	as.mu.Lock()
	defer as.mu.Unlock()

	key := id.key()
	if _, exists := as.nodeByID[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNodeID, id)
	}

	switch node.NodeClass() {
	case NodeClassObject, NodeClassVariable, NodeClassView:
		as.objectsByBrowseName[name] = node
	case NodeClassObjectType:
		as.objectTypesByBrowseName[name] = node
	case NodeClassVariableType:
		as.variableTypesByBrowseName[name] = node
	case NodeClassDataType:
		as.dataTypesByBrowseName[name] = node
	case NodeClassReferenceType:
		rt, ok := node.(*ReferenceTypeNode)
		if !ok {
			return fmt.Errorf("%w: node %s declares ReferenceType class", ErrUnknownNodeClass, id)
		}
		if rt.inverseName.Text == "" {
			return fmt.Errorf("%w: %s", ErrMissingInverseName, id)
		}
		as.referenceTypesByBrowseName[name] = rt
		as.referenceTypesByInverseName[rt.inverseName.Text] = rt
	default:
		return fmt.Errorf("%w: %s on node %s", ErrUnknownNodeClass, node.NodeClass(), id)
	}

	as.nodeByID[key] = node
	if as.metrics != nil {
		as.metrics.NodesRegistered.WithLabelValues(node.NodeClass().String()).Inc()
	}
	return nil
}

// AddReference appends a reference to a source node. The reference type is
// canonicalised to its forward browse name first, and when the target node
// is already registered the mirrored reference is installed on it so the
// edge is browsable from both ends. Dangling targets are tolerated.
func (as *AddressSpace) AddReference(sourceID NodeID, ref Reference) error {
	if err := ref.Validate(); err != nil {
		return err
	}

	refType, forward := as.NormalizeReferenceType(ref.ReferenceType, ref.IsForward)
	ref.ReferenceType = refType
	ref.IsForward = forward

	as.mu.Lock()
	defer as.mu.Unlock()

	source, ok := as.nodeByID[sourceID.key()]
	if !ok {
		return fmt.Errorf("%w: reference source %s", ErrInvalidReference, sourceID)
	}
	source.addReference(ref)

	if target, ok := as.nodeByID[ref.NodeID.key()]; ok {
		target.addReference(Reference{
			ReferenceType: ref.ReferenceType,
			NodeID:        sourceID,
			IsForward:     !ref.IsForward,
		})
	}
	return nil
}

// FindObject returns the registered node with the given NodeID, or nil.
func (as *AddressSpace) FindObject(id NodeID) Node {
	as.mu.RLock()
	defer as.mu.RUnlock()
	return as.nodeByID[id.key()]
}

// FindObjectByBrowseName returns the Object, Variable or View registered
// under the given browse name, or nil.
func (as *AddressSpace) FindObjectByBrowseName(name string) Node {
	as.mu.RLock()
	defer as.mu.RUnlock()
	return as.objectsByBrowseName[name]
}

// FindObjectTypeByBrowseName returns the ObjectType with the given browse
// name, or nil.
func (as *AddressSpace) FindObjectTypeByBrowseName(name string) Node {
	as.mu.RLock()
	defer as.mu.RUnlock()
	return as.objectTypesByBrowseName[name]
}

// FindVariableTypeByBrowseName returns the VariableType with the given
// browse name, or nil.
func (as *AddressSpace) FindVariableTypeByBrowseName(name string) Node {
	as.mu.RLock()
	defer as.mu.RUnlock()
	return as.variableTypesByBrowseName[name]
}

// FindDataType returns the DataType with the given browse name, or nil.
func (as *AddressSpace) FindDataType(name string) Node {
	as.mu.RLock()
	defer as.mu.RUnlock()
	return as.dataTypesByBrowseName[name]
}

// FindReferenceType looks a reference type up by browse name, or by NodeID
// when the argument is in NodeID syntax ("i=...", "ns=...").
func (as *AddressSpace) FindReferenceType(name string) *ReferenceTypeNode {
	if looksLikeNodeID(name) {
		id, err := ParseNodeID(name)
		if err != nil {
			return nil
		}
		node := as.FindObject(id)
		rt, ok := node.(*ReferenceTypeNode)
		if !ok {
			return nil
		}
		return rt
	}

	as.mu.RLock()
	defer as.mu.RUnlock()
	return as.referenceTypesByBrowseName[name]
}

// FindReferenceTypeFromInverseName looks a reference type up by its
// inverse name, or nil.
func (as *AddressSpace) FindReferenceTypeFromInverseName(name string) *ReferenceTypeNode {
	as.mu.RLock()
	defer as.mu.RUnlock()
	return as.referenceTypesByInverseName[name]
}

// NormalizeReferenceType canonicalises a (referenceType, isForward) pair so
// that the returned pair always names the forward browse name: a name that
// only matches an inverse name is replaced and the direction flipped.
// Unknown names pass through unchanged. The operation is idempotent.
func (as *AddressSpace) NormalizeReferenceType(referenceType string, isForward bool) (string, bool) {
	as.mu.RLock()
	defer as.mu.RUnlock()

	if _, ok := as.referenceTypesByBrowseName[referenceType]; ok {
		return referenceType, isForward
	}
	if rt, ok := as.referenceTypesByInverseName[referenceType]; ok {
		return rt.browseName.Name, !isForward
	}
	return referenceType, isForward
}

// InverseReferenceType returns the partner name of a reference type name:
// the inverse name for a forward name, the forward name for an inverse
// name. The second result is false when the name is unknown.
func (as *AddressSpace) InverseReferenceType(name string) (string, bool) {
	as.mu.RLock()
	defer as.mu.RUnlock()

	if rt, ok := as.referenceTypesByBrowseName[name]; ok {
		return rt.inverseName.Text, true
	}
	if rt, ok := as.referenceTypesByInverseName[name]; ok {
		return rt.browseName.Name, true
	}
	return "", false
}

// AddAlias registers a convenience alias resolvable through ResolveNodeID.
func (as *AddressSpace) AddAlias(alias string, id NodeID) {
	as.mu.Lock()
	defer as.mu.Unlock()
	as.aliases[alias] = id
}

// ResolveNodeID resolves a string to a NodeID, consulting the alias table
// before falling back to OPC UA NodeID syntax.
func (as *AddressSpace) ResolveNodeID(s string) (NodeID, error) {
	as.mu.RLock()
	id, ok := as.aliases[s]
	as.mu.RUnlock()
	if ok {
		return id, nil
	}
	return ParseNodeID(s)
}

// NodeCount returns the number of registered nodes.
func (as *AddressSpace) NodeCount() int {
	as.mu.RLock()
	defer as.mu.RUnlock()
	return len(as.nodeByID)
}

// BrowseNodeByTargetName returns the NodeIDs of the nodes reachable from a
// node through references matching a relative path element: direction and
// reference type per the element's filter, target browse name equal to the
// element's TargetName. Dangling references contribute nothing.
func (as *AddressSpace) BrowseNodeByTargetName(id NodeID, element RelativePathElement) []NodeID {
	node := as.FindObject(id)
	if node == nil {
		return nil
	}

	var out []NodeID
	for _, ref := range node.References() {
		if ref.IsForward == element.IsInverse {
			continue
		}
		if !as.referenceTypeMatches(ref.ReferenceType, element.ReferenceTypeID, element.IncludeSubtypes) {
			continue
		}
		target := as.FindObject(ref.NodeID)
		if target == nil {
			continue
		}
		bn := target.BrowseName()
		if bn.Name != element.TargetName.Name || bn.NamespaceIndex != element.TargetName.NamespaceIndex {
			continue
		}
		out = append(out, ref.NodeID)
	}
	return out
}

// referenceTypeMatches checks a reference's type name against a path
// element filter. A null filter (or i=0) matches every reference type.
func (as *AddressSpace) referenceTypeMatches(refTypeName string, filter NodeID, includeSubtypes bool) bool {
	if filter.IsNull() {
		return true
	}

	filterNode, ok := as.FindObject(filter).(*ReferenceTypeNode)
	if !ok {
		return false
	}
	if refTypeName == filterNode.browseName.Name {
		return true
	}
	if !includeSubtypes {
		return false
	}
	return as.isSubtypeOf(refTypeName, filterNode, make(map[string]bool))
}

// isSubtypeOf walks HasSubtype references down from an ancestor reference
// type looking for the named subtype. The visited set bounds the walk on a
// cyclic type hierarchy.
func (as *AddressSpace) isSubtypeOf(name string, ancestor *ReferenceTypeNode, visited map[string]bool) bool {
	key := ancestor.nodeID.key()
	if visited[key] {
		return false
	}
	visited[key] = true

	for _, ref := range ancestor.References() {
		if !ref.IsForward || ref.ReferenceType != "HasSubtype" {
			continue
		}
		child, ok := as.FindObject(ref.NodeID).(*ReferenceTypeNode)
		if !ok {
			continue
		}
		if child.browseName.Name == name || as.isSubtypeOf(name, child, visited) {
			return true
		}
	}
	return false
}
