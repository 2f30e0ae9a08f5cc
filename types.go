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

// Package uacore provides the core of an OPC UA address space and the
// client-side publish pipeline: typed nodes, multi-index lookup, browse
// path translation and pipelined PublishRequest handling.
package uacore

import (
	"time"
)

// NodeIDType represents the type of a NodeID identifier.
type NodeIDType uint8

// NodeID identifier types.
const (
	NodeIDTypeNumeric NodeIDType = iota
	NodeIDTypeString
	NodeIDTypeGUID
	NodeIDTypeOpaque
)

// NodeID represents an OPC UA NodeID.
type NodeID struct {
	Type      NodeIDType
	Namespace uint16
	Numeric   uint32
	Text      string
	GUID      [16]byte
	Opaque    []byte
}

// NewNumericNodeID creates a new numeric NodeID.
func NewNumericNodeID(namespace uint16, id uint32) NodeID {
	return NodeID{
		Type:      NodeIDTypeNumeric,
		Namespace: namespace,
		Numeric:   id,
	}
}

// NewStringNodeID creates a new string NodeID.
func NewStringNodeID(namespace uint16, id string) NodeID {
	return NodeID{
		Type:      NodeIDTypeString,
		Namespace: namespace,
		Text:      id,
	}
}

// NewGUIDNodeID creates a new GUID NodeID.
func NewGUIDNodeID(namespace uint16, guid [16]byte) NodeID {
	return NodeID{
		Type:      NodeIDTypeGUID,
		Namespace: namespace,
		GUID:      guid,
	}
}

// NewOpaqueNodeID creates a new opaque NodeID.
func NewOpaqueNodeID(namespace uint16, data []byte) NodeID {
	return NodeID{
		Type:      NodeIDTypeOpaque,
		Namespace: namespace,
		Opaque:    data,
	}
}

// ServiceID represents an OPC UA service identifier.
type ServiceID uint32

// OPC UA Service IDs handled by this core.
const (
	ServiceBrowse                        ServiceID = 527
	ServiceTranslateBrowsePathsToNodeIds ServiceID = 554
	ServiceRead                          ServiceID = 631
	ServiceWrite                         ServiceID = 673
	ServicePublish                       ServiceID = 826
)

// String returns the string representation of a ServiceID.
func (s ServiceID) String() string {
	switch s {
	case ServiceBrowse:
		return "Browse"
	case ServiceTranslateBrowsePathsToNodeIds:
		return "TranslateBrowsePathsToNodeIds"
	case ServiceRead:
		return "Read"
	case ServiceWrite:
		return "Write"
	case ServicePublish:
		return "Publish"
	default:
		return "Unknown"
	}
}

// AttributeID represents an OPC UA attribute identifier.
type AttributeID uint32

// OPC UA Attribute IDs.
const (
	AttributeNodeID                  AttributeID = 1
	AttributeNodeClass               AttributeID = 2
	AttributeBrowseName              AttributeID = 3
	AttributeDisplayName             AttributeID = 4
	AttributeDescription             AttributeID = 5
	AttributeWriteMask               AttributeID = 6
	AttributeUserWriteMask           AttributeID = 7
	AttributeIsAbstract              AttributeID = 8
	AttributeSymmetric               AttributeID = 9
	AttributeInverseName             AttributeID = 10
	AttributeContainsNoLoops         AttributeID = 11
	AttributeEventNotifier           AttributeID = 12
	AttributeValue                   AttributeID = 13
	AttributeDataType                AttributeID = 14
	AttributeValueRank               AttributeID = 15
	AttributeArrayDimensions         AttributeID = 16
	AttributeAccessLevel             AttributeID = 17
	AttributeUserAccessLevel         AttributeID = 18
	AttributeMinimumSamplingInterval AttributeID = 19
	AttributeHistorizing             AttributeID = 20
)

// String returns the string representation of an AttributeID.
func (a AttributeID) String() string {
	switch a {
	case AttributeNodeID:
		return "NodeId"
	case AttributeNodeClass:
		return "NodeClass"
	case AttributeBrowseName:
		return "BrowseName"
	case AttributeDisplayName:
		return "DisplayName"
	case AttributeDescription:
		return "Description"
	case AttributeWriteMask:
		return "WriteMask"
	case AttributeUserWriteMask:
		return "UserWriteMask"
	case AttributeIsAbstract:
		return "IsAbstract"
	case AttributeSymmetric:
		return "Symmetric"
	case AttributeInverseName:
		return "InverseName"
	case AttributeContainsNoLoops:
		return "ContainsNoLoops"
	case AttributeEventNotifier:
		return "EventNotifier"
	case AttributeValue:
		return "Value"
	case AttributeDataType:
		return "DataType"
	case AttributeValueRank:
		return "ValueRank"
	case AttributeArrayDimensions:
		return "ArrayDimensions"
	case AttributeAccessLevel:
		return "AccessLevel"
	case AttributeUserAccessLevel:
		return "UserAccessLevel"
	case AttributeMinimumSamplingInterval:
		return "MinimumSamplingInterval"
	case AttributeHistorizing:
		return "Historizing"
	default:
		return "Unknown"
	}
}

// NodeClass represents the class of an OPC UA node.
type NodeClass uint32

// OPC UA Node Classes.
const (
	NodeClassUnspecified   NodeClass = 0
	NodeClassObject        NodeClass = 1
	NodeClassVariable      NodeClass = 2
	NodeClassMethod        NodeClass = 4
	NodeClassObjectType    NodeClass = 8
	NodeClassVariableType  NodeClass = 16
	NodeClassReferenceType NodeClass = 32
	NodeClassDataType      NodeClass = 64
	NodeClassView          NodeClass = 128
)

// String returns the string representation of a NodeClass.
func (n NodeClass) String() string {
	switch n {
	case NodeClassUnspecified:
		return "Unspecified"
	case NodeClassObject:
		return "Object"
	case NodeClassVariable:
		return "Variable"
	case NodeClassMethod:
		return "Method"
	case NodeClassObjectType:
		return "ObjectType"
	case NodeClassVariableType:
		return "VariableType"
	case NodeClassReferenceType:
		return "ReferenceType"
	case NodeClassDataType:
		return "DataType"
	case NodeClassView:
		return "View"
	default:
		return "Unknown"
	}
}

// BrowseDirection represents the direction to browse in the address space.
type BrowseDirection uint32

// Browse directions.
const (
	BrowseDirectionForward BrowseDirection = 0
	BrowseDirectionInverse BrowseDirection = 1
	BrowseDirectionBoth    BrowseDirection = 2
)

// DataValue represents an OPC UA DataValue.
type DataValue struct {
	Value           *Variant
	StatusCode      StatusCode
	SourceTimestamp time.Time
	ServerTimestamp time.Time
}

// Variant represents an OPC UA Variant.
type Variant struct {
	Type  TypeID
	Value interface{}
}

// TypeID represents an OPC UA built-in type.
type TypeID uint8

// OPC UA Built-in Types.
const (
	TypeNull          TypeID = 0
	TypeBoolean       TypeID = 1
	TypeSByte         TypeID = 2
	TypeByte          TypeID = 3
	TypeInt16         TypeID = 4
	TypeUInt16        TypeID = 5
	TypeInt32         TypeID = 6
	TypeUInt32        TypeID = 7
	TypeInt64         TypeID = 8
	TypeUInt64        TypeID = 9
	TypeFloat         TypeID = 10
	TypeDouble        TypeID = 11
	TypeString        TypeID = 12
	TypeDateTime      TypeID = 13
	TypeGUID          TypeID = 14
	TypeByteString    TypeID = 15
	TypeNodeID        TypeID = 17
	TypeStatusCode    TypeID = 19
	TypeQualifiedName TypeID = 20
	TypeLocalizedText TypeID = 21
	TypeVariant       TypeID = 24
)

// StatusCode represents an OPC UA StatusCode.
type StatusCode uint32

// QualifiedName represents an OPC UA QualifiedName.
type QualifiedName struct {
	NamespaceIndex uint16
	Name           string
}

// LocalizedText represents an OPC UA LocalizedText.
type LocalizedText struct {
	Locale string
	Text   string
}

// ReadValueID represents a node attribute to read.
type ReadValueID struct {
	NodeID      NodeID
	AttributeID AttributeID
}

// WriteValue represents a value to write to a node attribute.
type WriteValue struct {
	NodeID      NodeID
	AttributeID AttributeID
	Value       DataValue
}

// BrowseDescription describes what to browse from a node.
type BrowseDescription struct {
	NodeID          NodeID
	BrowseDirection BrowseDirection
	ReferenceTypeID NodeID
	IncludeSubtypes bool
	NodeClassMask   uint32
}

// ReferenceDescription describes a reference returned from a browse.
type ReferenceDescription struct {
	ReferenceTypeID NodeID
	IsForward       bool
	NodeID          NodeID
	BrowseName      QualifiedName
	DisplayName     LocalizedText
	NodeClass       NodeClass
}

// BrowseResult contains the result of a browse operation.
type BrowseResult struct {
	StatusCode StatusCode
	References []ReferenceDescription
}

// BrowsePath describes a browse path.
type BrowsePath struct {
	StartingNode NodeID
	RelativePath RelativePath
}

// RelativePath is a sequence of browse names.
type RelativePath struct {
	Elements []RelativePathElement
}

// RelativePathElement is a single element of a relative path.
type RelativePathElement struct {
	ReferenceTypeID NodeID
	IsInverse       bool
	IncludeSubtypes bool
	TargetName      QualifiedName
}

// BrowsePathResult contains the result of a TranslateBrowsePathsToNodeIds operation.
type BrowsePathResult struct {
	StatusCode StatusCode
	Targets    []BrowsePathTarget
}

// BrowsePathTarget contains a target node of a browse path.
type BrowsePathTarget struct {
	TargetID           NodeID
	RemainingPathIndex uint32
}

// RemainingPathComplete is the RemainingPathIndex sentinel marking a target
// that consumed the entire relative path.
const RemainingPathComplete uint32 = 0xFFFFFFFF

// RequestHeader is the common header carried by every service request.
type RequestHeader struct {
	AuthenticationToken NodeID
	Timestamp           time.Time
	RequestHandle       uint32
	TimeoutHint         uint32
}

// PublishRequest represents an OPC UA Publish request.
type PublishRequest struct {
	RequestHeader                RequestHeader
	SubscriptionAcknowledgements []SubscriptionAcknowledgement
}

// SubscriptionAcknowledgement acknowledges a notification.
type SubscriptionAcknowledgement struct {
	SubscriptionID uint32
	SequenceNumber uint32
}

// PublishResponse represents an OPC UA Publish response.
type PublishResponse struct {
	SubscriptionID           uint32
	AvailableSequenceNumbers []uint32
	MoreNotifications        bool
	NotificationMessage      NotificationMessage
	Results                  []StatusCode
}

// NotificationMessage contains the notifications delivered by one Publish
// response. An empty NotificationData is a keep-alive.
type NotificationMessage struct {
	SequenceNumber   uint32
	PublishTime      time.Time
	NotificationData []interface{}
}

// DataChangeNotificationData carries monitored item value changes.
type DataChangeNotificationData struct {
	MonitoredItems []MonitoredItemNotification
}

// MonitoredItemNotification is a single monitored item value change.
type MonitoredItemNotification struct {
	ClientHandle uint32
	Value        DataValue
}

// Well-known NodeIDs of the standard namespace.
var (
	// IDRootFolder is the Root folder (i=84).
	IDRootFolder = NewNumericNodeID(0, 84)

	// IDObjectsFolder is the Objects folder (i=85).
	IDObjectsFolder = NewNumericNodeID(0, 85)

	// IDTypesFolder is the Types folder (i=86).
	IDTypesFolder = NewNumericNodeID(0, 86)

	// IDViewsFolder is the Views folder (i=87).
	IDViewsFolder = NewNumericNodeID(0, 87)

	// IDReferences is the abstract References reference type (i=31).
	IDReferences = NewNumericNodeID(0, 31)

	// IDHierarchicalReferences is the HierarchicalReferences reference type (i=33).
	IDHierarchicalReferences = NewNumericNodeID(0, 33)

	// IDOrganizes is the Organizes reference type (i=35).
	IDOrganizes = NewNumericNodeID(0, 35)

	// IDHasTypeDefinition is the HasTypeDefinition reference type (i=40).
	IDHasTypeDefinition = NewNumericNodeID(0, 40)

	// IDHasSubtype is the HasSubtype reference type (i=45).
	IDHasSubtype = NewNumericNodeID(0, 45)

	// IDHasProperty is the HasProperty reference type (i=46).
	IDHasProperty = NewNumericNodeID(0, 46)

	// IDHasComponent is the HasComponent reference type (i=47).
	IDHasComponent = NewNumericNodeID(0, 47)
)
