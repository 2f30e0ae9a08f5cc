package uacore

import (
	"fmt"
	"time"
)

// Reference is a typed directed edge to another node. ReferenceType is a
// browse name such as "Organizes", never a NodeID string.
type Reference struct {
	ReferenceType string
	NodeID        NodeID
	IsForward     bool
}

// Validate checks the reference invariants.
func (r Reference) Validate() error {
	if r.ReferenceType == "" {
		return fmt.Errorf("%w: empty reference type", ErrInvalidReference)
	}
	if looksLikeNodeID(r.ReferenceType) {
		return fmt.Errorf("%w: reference type %q must be a browse name, not a node ID", ErrInvalidReference, r.ReferenceType)
	}
	if r.NodeID.IsNull() {
		return fmt.Errorf("%w: null target node ID", ErrInvalidReference)
	}
	return nil
}

// Node is the interface implemented by every node in the address space.
// A node's identity (NodeID, BrowseName, NodeClass) is fixed at
// construction; only its reference list grows.
type Node interface {
	NodeID() NodeID
	BrowseName() QualifiedName
	DisplayName() LocalizedText
	Description() LocalizedText
	NodeClass() NodeClass
	References() []Reference

	// ReadAttribute returns the attribute as a DataValue. Unsupported
	// attributes carry StatusBadAttributeIdInvalid.
	ReadAttribute(attr AttributeID) DataValue

	addReference(ref Reference)
}

// baseNode carries the attributes shared by every node class.
type baseNode struct {
	nodeID      NodeID
	browseName  QualifiedName
	displayName LocalizedText
	description LocalizedText
	references  []Reference
}

func (n *baseNode) NodeID() NodeID             { return n.nodeID }
func (n *baseNode) BrowseName() QualifiedName  { return n.browseName }
func (n *baseNode) DisplayName() LocalizedText { return n.displayName }
func (n *baseNode) Description() LocalizedText { return n.description }

// References returns a copy of the node's reference list.
func (n *baseNode) References() []Reference {
	refs := make([]Reference, len(n.references))
	copy(refs, n.references)
	return refs
}

func (n *baseNode) addReference(ref Reference) {
	n.references = append(n.references, ref)
}

// readBaseAttribute serves the attributes every node class carries.
func (n *baseNode) readBaseAttribute(class NodeClass, attr AttributeID) DataValue {
	switch attr {
	case AttributeNodeID:
		return goodValue(Variant{Type: TypeNodeID, Value: n.nodeID})
	case AttributeNodeClass:
		return goodValue(Variant{Type: TypeInt32, Value: int32(class)})
	case AttributeBrowseName:
		return goodValue(Variant{Type: TypeQualifiedName, Value: n.browseName})
	case AttributeDisplayName:
		return goodValue(Variant{Type: TypeLocalizedText, Value: n.displayName})
	case AttributeDescription:
		return goodValue(Variant{Type: TypeLocalizedText, Value: n.description})
	default:
		return DataValue{StatusCode: StatusBadAttributeIdInvalid}
	}
}

func goodValue(v Variant) DataValue {
	return DataValue{
		Value:           &v,
		StatusCode:      StatusGood,
		ServerTimestamp: time.Now(),
	}
}

// ObjectNode is a node of class Object.
type ObjectNode struct {
	baseNode
	eventNotifier uint8
}

func (n *ObjectNode) NodeClass() NodeClass { return NodeClassObject }

// EventNotifier returns the node's event notifier bits.
func (n *ObjectNode) EventNotifier() uint8 { return n.eventNotifier }

func (n *ObjectNode) ReadAttribute(attr AttributeID) DataValue {
	if attr == AttributeEventNotifier {
		return goodValue(Variant{Type: TypeByte, Value: n.eventNotifier})
	}
	return n.readBaseAttribute(NodeClassObject, attr)
}

// VariableNode is a node of class Variable.
type VariableNode struct {
	baseNode
	value                   DataValue
	dataType                NodeID
	valueRank               int32
	arrayDimensions         []uint32
	accessLevel             uint8
	userAccessLevel         uint8
	minimumSamplingInterval float64
	historizing             bool
}

func (n *VariableNode) NodeClass() NodeClass { return NodeClassVariable }

// Value returns the variable's current value.
func (n *VariableNode) Value() DataValue { return n.value }

// DataType returns the variable's data type NodeID.
func (n *VariableNode) DataType() NodeID { return n.dataType }

// SetValue replaces the variable's value and stamps the source timestamp.
func (n *VariableNode) SetValue(v DataValue) {
	if v.SourceTimestamp.IsZero() {
		v.SourceTimestamp = time.Now()
	}
	n.value = v
}

func (n *VariableNode) ReadAttribute(attr AttributeID) DataValue {
	switch attr {
	case AttributeValue:
		v := n.value
		if v.StatusCode == 0 {
			v.StatusCode = StatusGood
		}
		v.ServerTimestamp = time.Now()
		return v
	case AttributeDataType:
		return goodValue(Variant{Type: TypeNodeID, Value: n.dataType})
	case AttributeValueRank:
		return goodValue(Variant{Type: TypeInt32, Value: n.valueRank})
	case AttributeArrayDimensions:
		return goodValue(Variant{Type: TypeVariant, Value: n.arrayDimensions})
	case AttributeAccessLevel:
		return goodValue(Variant{Type: TypeByte, Value: n.accessLevel})
	case AttributeUserAccessLevel:
		return goodValue(Variant{Type: TypeByte, Value: n.userAccessLevel})
	case AttributeMinimumSamplingInterval:
		return goodValue(Variant{Type: TypeDouble, Value: n.minimumSamplingInterval})
	case AttributeHistorizing:
		return goodValue(Variant{Type: TypeBoolean, Value: n.historizing})
	default:
		return n.readBaseAttribute(NodeClassVariable, attr)
	}
}

// ObjectTypeNode is a node of class ObjectType.
type ObjectTypeNode struct {
	baseNode
	isAbstract bool
}

func (n *ObjectTypeNode) NodeClass() NodeClass { return NodeClassObjectType }

// IsAbstract reports whether the type is abstract and so cannot be
// instantiated.
func (n *ObjectTypeNode) IsAbstract() bool { return n.isAbstract }

func (n *ObjectTypeNode) ReadAttribute(attr AttributeID) DataValue {
	if attr == AttributeIsAbstract {
		return goodValue(Variant{Type: TypeBoolean, Value: n.isAbstract})
	}
	return n.readBaseAttribute(NodeClassObjectType, attr)
}

// VariableTypeNode is a node of class VariableType.
type VariableTypeNode struct {
	baseNode
	isAbstract bool
}

func (n *VariableTypeNode) NodeClass() NodeClass { return NodeClassVariableType }

// IsAbstract reports whether the type is abstract and so cannot be
// instantiated.
func (n *VariableTypeNode) IsAbstract() bool { return n.isAbstract }

func (n *VariableTypeNode) ReadAttribute(attr AttributeID) DataValue {
	if attr == AttributeIsAbstract {
		return goodValue(Variant{Type: TypeBoolean, Value: n.isAbstract})
	}
	return n.readBaseAttribute(NodeClassVariableType, attr)
}

// DataTypeNode is a node of class DataType.
type DataTypeNode struct {
	baseNode
	isAbstract bool
}

func (n *DataTypeNode) NodeClass() NodeClass { return NodeClassDataType }

// IsAbstract reports whether the data type is abstract.
func (n *DataTypeNode) IsAbstract() bool { return n.isAbstract }

func (n *DataTypeNode) ReadAttribute(attr AttributeID) DataValue {
	if attr == AttributeIsAbstract {
		return goodValue(Variant{Type: TypeBoolean, Value: n.isAbstract})
	}
	return n.readBaseAttribute(NodeClassDataType, attr)
}

// ReferenceTypeNode is a node of class ReferenceType. Every reference type
// carries a forward browse name and an inverse name.
type ReferenceTypeNode struct {
	baseNode
	inverseName LocalizedText
	isAbstract  bool
	symmetric   bool
}

func (n *ReferenceTypeNode) NodeClass() NodeClass { return NodeClassReferenceType }

// InverseName returns the name of the reference when followed backwards.
func (n *ReferenceTypeNode) InverseName() LocalizedText { return n.inverseName }

// IsAbstract reports whether the reference type is abstract, so that
// references use one of its subtypes rather than the type itself.
func (n *ReferenceTypeNode) IsAbstract() bool { return n.isAbstract }

// Symmetric reports whether the reference reads the same in both directions.
func (n *ReferenceTypeNode) Symmetric() bool { return n.symmetric }

func (n *ReferenceTypeNode) ReadAttribute(attr AttributeID) DataValue {
	switch attr {
	case AttributeIsAbstract:
		return goodValue(Variant{Type: TypeBoolean, Value: n.isAbstract})
	case AttributeSymmetric:
		return goodValue(Variant{Type: TypeBoolean, Value: n.symmetric})
	case AttributeInverseName:
		return goodValue(Variant{Type: TypeLocalizedText, Value: n.inverseName})
	default:
		return n.readBaseAttribute(NodeClassReferenceType, attr)
	}
}

// ViewNode is a node of class View.
type ViewNode struct {
	baseNode
	containsNoLoops bool
	eventNotifier   uint8
}

func (n *ViewNode) NodeClass() NodeClass { return NodeClassView }

// ContainsNoLoops reports whether the view graph is loop free.
func (n *ViewNode) ContainsNoLoops() bool { return n.containsNoLoops }

// EventNotifier returns the view's event notifier bits.
func (n *ViewNode) EventNotifier() uint8 { return n.eventNotifier }

func (n *ViewNode) ReadAttribute(attr AttributeID) DataValue {
	switch attr {
	case AttributeEventNotifier:
		return goodValue(Variant{Type: TypeUInt32, Value: uint32(n.eventNotifier)})
	case AttributeContainsNoLoops:
		return goodValue(Variant{Type: TypeBoolean, Value: n.containsNoLoops})
	default:
		return n.readBaseAttribute(NodeClassView, attr)
	}
}

// NodeDefinition carries the attributes used to construct a node. NodeID,
// NodeClass and BrowseName are required; the class-specific fields are
// consulted only by the matching node class.
type NodeDefinition struct {
	NodeID      NodeID
	NodeClass   NodeClass
	BrowseName  QualifiedName
	DisplayName LocalizedText
	Description LocalizedText
	References  []Reference

	// ReferenceType
	InverseName LocalizedText
	Symmetric   bool

	// ReferenceType, ObjectType, VariableType, DataType
	IsAbstract bool

	// Object, View
	EventNotifier uint8

	// View
	ContainsNoLoops bool

	// Variable
	Value                   DataValue
	DataType                NodeID
	ValueRank               int32
	ArrayDimensions         []uint32
	AccessLevel             uint8
	UserAccessLevel         uint8
	MinimumSamplingInterval float64
	Historizing             bool
}

// newNode instantiates the class-specific node variant for a definition.
func newNode(def NodeDefinition) (Node, error) {
	base := baseNode{
		nodeID:      def.NodeID,
		browseName:  def.BrowseName,
		displayName: def.DisplayName,
		description: def.Description,
	}
	if base.displayName.Text == "" {
		base.displayName = LocalizedText{Text: def.BrowseName.Name}
	}

	switch def.NodeClass {
	case NodeClassObject:
		return &ObjectNode{baseNode: base, eventNotifier: def.EventNotifier}, nil
	case NodeClassVariable:
		return &VariableNode{
			baseNode:                base,
			value:                   def.Value,
			dataType:                def.DataType,
			valueRank:               def.ValueRank,
			arrayDimensions:         def.ArrayDimensions,
			accessLevel:             def.AccessLevel,
			userAccessLevel:         def.UserAccessLevel,
			minimumSamplingInterval: def.MinimumSamplingInterval,
			historizing:             def.Historizing,
		}, nil
	case NodeClassObjectType:
		return &ObjectTypeNode{baseNode: base, isAbstract: def.IsAbstract}, nil
	case NodeClassVariableType:
		return &VariableTypeNode{baseNode: base, isAbstract: def.IsAbstract}, nil
	case NodeClassReferenceType:
		return &ReferenceTypeNode{
			baseNode:    base,
			inverseName: def.InverseName,
			isAbstract:  def.IsAbstract,
			symmetric:   def.Symmetric,
		}, nil
	case NodeClassDataType:
		return &DataTypeNode{baseNode: base, isAbstract: def.IsAbstract}, nil
	case NodeClassView:
		return &ViewNode{
			baseNode:        base,
			containsNoLoops: def.ContainsNoLoops,
			eventNotifier:   def.EventNotifier,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownNodeClass, def.NodeClass)
	}
}
