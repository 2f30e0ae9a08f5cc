package uacore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceValidate(t *testing.T) {
	valid := Reference{ReferenceType: "Organizes", NodeID: IDObjectsFolder, IsForward: true}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name string
		ref  Reference
	}{
		{"empty type", Reference{NodeID: IDObjectsFolder}},
		{"numeric node id syntax", Reference{ReferenceType: "i=35", NodeID: IDObjectsFolder}},
		{"namespaced node id syntax", Reference{ReferenceType: "ns=2;i=35", NodeID: IDObjectsFolder}},
		{"null target", Reference{ReferenceType: "Organizes"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.ref.Validate(), ErrInvalidReference)
		})
	}
}

func TestViewNodeReadAttribute(t *testing.T) {
	as := NewAddressSpace(WithSpaceLogger(quietLogger()))

	node, err := as.CreateNode(NodeDefinition{
		NodeID:          NewNumericNodeID(1, 1),
		NodeClass:       NodeClassView,
		BrowseName:      QualifiedName{Name: "PlantOverview"},
		ContainsNoLoops: true,
		EventNotifier:   1,
	})
	require.NoError(t, err)

	dv := node.ReadAttribute(AttributeEventNotifier)
	require.Equal(t, StatusGood, dv.StatusCode)
	assert.Equal(t, TypeUInt32, dv.Value.Type)
	assert.Equal(t, uint32(1), dv.Value.Value)

	dv = node.ReadAttribute(AttributeContainsNoLoops)
	require.Equal(t, StatusGood, dv.StatusCode)
	assert.Equal(t, TypeBoolean, dv.Value.Type)
	assert.Equal(t, true, dv.Value.Value)

	// Falls back to the base handler.
	dv = node.ReadAttribute(AttributeBrowseName)
	require.Equal(t, StatusGood, dv.StatusCode)
	assert.Equal(t, QualifiedName{Name: "PlantOverview"}, dv.Value.Value)

	dv = node.ReadAttribute(AttributeHistorizing)
	assert.Equal(t, StatusBadAttributeIdInvalid, dv.StatusCode)
}

func TestVariableNodeReadAttribute(t *testing.T) {
	as := NewAddressSpace(WithSpaceLogger(quietLogger()))

	node, err := as.CreateNode(NodeDefinition{
		NodeID:     NewNumericNodeID(1, 2),
		NodeClass:  NodeClassVariable,
		BrowseName: QualifiedName{Name: "Pressure"},
		Value: DataValue{
			Value:           &Variant{Type: TypeDouble, Value: 4.2},
			SourceTimestamp: time.Now(),
		},
		DataType:                NewNumericNodeID(0, 11),
		ValueRank:               -1,
		AccessLevel:             3,
		UserAccessLevel:         3,
		MinimumSamplingInterval: 100,
		Historizing:             true,
	})
	require.NoError(t, err)

	variable, ok := node.(*VariableNode)
	require.True(t, ok)

	dv := variable.ReadAttribute(AttributeValue)
	require.Equal(t, StatusGood, dv.StatusCode)
	assert.Equal(t, 4.2, dv.Value.Value)
	assert.False(t, dv.ServerTimestamp.IsZero())

	dv = variable.ReadAttribute(AttributeDataType)
	require.Equal(t, StatusGood, dv.StatusCode)
	assert.Equal(t, NewNumericNodeID(0, 11), dv.Value.Value)

	dv = variable.ReadAttribute(AttributeValueRank)
	assert.Equal(t, int32(-1), dv.Value.Value)

	dv = variable.ReadAttribute(AttributeHistorizing)
	assert.Equal(t, true, dv.Value.Value)

	dv = variable.ReadAttribute(AttributeEventNotifier)
	assert.Equal(t, StatusBadAttributeIdInvalid, dv.StatusCode)

	variable.SetValue(DataValue{Value: &Variant{Type: TypeDouble, Value: 5.5}})
	dv = variable.ReadAttribute(AttributeValue)
	assert.Equal(t, 5.5, dv.Value.Value)
	assert.False(t, dv.SourceTimestamp.IsZero())
}

func TestReferenceTypeNodeReadAttribute(t *testing.T) {
	as := newMinimalSpace(t)

	rt := as.FindReferenceType("Organizes")
	require.NotNil(t, rt)

	dv := rt.ReadAttribute(AttributeInverseName)
	require.Equal(t, StatusGood, dv.StatusCode)
	assert.Equal(t, LocalizedText{Text: "OrganizedBy"}, dv.Value.Value)

	dv = rt.ReadAttribute(AttributeSymmetric)
	assert.Equal(t, false, dv.Value.Value)

	dv = rt.ReadAttribute(AttributeIsAbstract)
	assert.Equal(t, false, dv.Value.Value)
}

func TestTypeNodesReadIsAbstract(t *testing.T) {
	as := NewAddressSpace(WithSpaceLogger(quietLogger()))

	defs := []NodeDefinition{
		{NodeID: NewNumericNodeID(1, 3), NodeClass: NodeClassObjectType, BrowseName: QualifiedName{Name: "AbstractThing"}, IsAbstract: true},
		{NodeID: NewNumericNodeID(1, 4), NodeClass: NodeClassVariableType, BrowseName: QualifiedName{Name: "AbstractVar"}, IsAbstract: true},
		{NodeID: NewNumericNodeID(1, 5), NodeClass: NodeClassDataType, BrowseName: QualifiedName{Name: "AbstractData"}, IsAbstract: true},
	}
	for _, def := range defs {
		node, err := as.CreateNode(def)
		require.NoError(t, err)

		dv := node.ReadAttribute(AttributeIsAbstract)
		require.Equal(t, StatusGood, dv.StatusCode)
		assert.Equal(t, true, dv.Value.Value)
	}
}

func TestBaseAttributesAcrossClasses(t *testing.T) {
	as := NewAddressSpace(WithSpaceLogger(quietLogger()))

	node, err := as.CreateNode(NodeDefinition{
		NodeID:      NewNumericNodeID(1, 6),
		NodeClass:   NodeClassObject,
		BrowseName:  QualifiedName{NamespaceIndex: 1, Name: "Boiler"},
		Description: LocalizedText{Text: "Main boiler"},
	})
	require.NoError(t, err)

	dv := node.ReadAttribute(AttributeNodeID)
	assert.Equal(t, NewNumericNodeID(1, 6), dv.Value.Value)

	dv = node.ReadAttribute(AttributeNodeClass)
	assert.Equal(t, int32(NodeClassObject), dv.Value.Value)

	// DisplayName defaults to the browse name.
	dv = node.ReadAttribute(AttributeDisplayName)
	assert.Equal(t, LocalizedText{Text: "Boiler"}, dv.Value.Value)

	dv = node.ReadAttribute(AttributeDescription)
	assert.Equal(t, LocalizedText{Text: "Main boiler"}, dv.Value.Value)
}
