package uacore

// NewStandardSpace creates an address space pre-populated with the core of
// the standard namespace: the root folder hierarchy, the reference types
// this core depends on, and the conventional aliases. Loaders layer their
// own namespaces on top of it.
func NewStandardSpace(opts ...SpaceOption) (*AddressSpace, error) {
	as := NewAddressSpace(opts...)

	type refTypeDef struct {
		id          NodeID
		name        string
		inverseName string
		isAbstract  bool
		symmetric   bool
	}

	// Reference types first: registration wires the forward and inverse
	// name indices that reference normalisation depends on.
	refTypes := []refTypeDef{
		{IDReferences, "References", "References", true, true},
		{NewNumericNodeID(0, 32), "NonHierarchicalReferences", "NonHierarchicalReferences", true, true},
		{IDHierarchicalReferences, "HierarchicalReferences", "InverseHierarchicalReferences", true, false},
		{NewNumericNodeID(0, 34), "HasChild", "ChildOf", true, false},
		{IDOrganizes, "Organizes", "OrganizedBy", false, false},
		{IDHasTypeDefinition, "HasTypeDefinition", "TypeDefinitionOf", false, false},
		{IDHasSubtype, "HasSubtype", "SubtypeOf", false, false},
		{IDHasProperty, "HasProperty", "PropertyOf", false, false},
		{IDHasComponent, "HasComponent", "ComponentOf", false, false},
	}

	for _, rt := range refTypes {
		_, err := as.CreateNode(NodeDefinition{
			NodeID:      rt.id,
			NodeClass:   NodeClassReferenceType,
			BrowseName:  QualifiedName{Name: rt.name},
			InverseName: LocalizedText{Text: rt.inverseName},
			IsAbstract:  rt.isAbstract,
			Symmetric:   rt.symmetric,
		})
		if err != nil {
			return nil, err
		}
	}

	// Reference type hierarchy.
	subtypeEdges := []struct {
		parent NodeID
		child  NodeID
	}{
		{IDReferences, IDHierarchicalReferences},
		{IDReferences, NewNumericNodeID(0, 32)},
		{IDHierarchicalReferences, IDOrganizes},
		{IDHierarchicalReferences, NewNumericNodeID(0, 34)},
		{NewNumericNodeID(0, 34), IDHasSubtype},
		{NewNumericNodeID(0, 34), IDHasComponent},
		{NewNumericNodeID(0, 34), IDHasProperty},
		{NewNumericNodeID(0, 32), IDHasTypeDefinition},
	}
	for _, edge := range subtypeEdges {
		err := as.AddReference(edge.parent, Reference{
			ReferenceType: "HasSubtype",
			NodeID:        edge.child,
			IsForward:     true,
		})
		if err != nil {
			return nil, err
		}
	}

	// Object types.
	baseObjectType := NewNumericNodeID(0, 58)
	folderType := NewNumericNodeID(0, 61)
	if _, err := as.CreateNode(NodeDefinition{
		NodeID:     baseObjectType,
		NodeClass:  NodeClassObjectType,
		BrowseName: QualifiedName{Name: "BaseObjectType"},
	}); err != nil {
		return nil, err
	}
	if _, err := as.CreateNode(NodeDefinition{
		NodeID:     folderType,
		NodeClass:  NodeClassObjectType,
		BrowseName: QualifiedName{Name: "FolderType"},
		References: []Reference{
			{ReferenceType: "SubtypeOf", NodeID: baseObjectType, IsForward: true},
		},
	}); err != nil {
		return nil, err
	}

	// Folder hierarchy.
	folders := []struct {
		id   NodeID
		name string
	}{
		{IDRootFolder, "Root"},
		{IDObjectsFolder, "Objects"},
		{IDTypesFolder, "Types"},
		{IDViewsFolder, "Views"},
	}
	for _, f := range folders {
		_, err := as.CreateNode(NodeDefinition{
			NodeID:     f.id,
			NodeClass:  NodeClassObject,
			BrowseName: QualifiedName{Name: f.name},
			References: []Reference{
				{ReferenceType: "HasTypeDefinition", NodeID: folderType, IsForward: true},
			},
		})
		if err != nil {
			return nil, err
		}
	}
	for _, child := range []NodeID{IDObjectsFolder, IDTypesFolder, IDViewsFolder} {
		err := as.AddReference(IDRootFolder, Reference{
			ReferenceType: "Organizes",
			NodeID:        child,
			IsForward:     true,
		})
		if err != nil {
			return nil, err
		}
	}

	// Conventional aliases.
	for _, rt := range refTypes {
		as.AddAlias(rt.name, rt.id)
	}
	as.AddAlias("RootFolder", IDRootFolder)
	as.AddAlias("ObjectsFolder", IDObjectsFolder)

	return as, nil
}
