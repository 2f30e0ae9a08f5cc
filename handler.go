package uacore

import (
	"log/slog"
	"time"
)

// AddressSpaceHandler answers the view, query and attribute services a
// server's service layer routes to the address space: Browse,
// TranslateBrowsePathsToNodeIds, Read and Write. Operation failures are
// reported per-operand as status codes, never as out-of-band errors.
type AddressSpaceHandler struct {
	space  *AddressSpace
	logger *slog.Logger
}

// NewAddressSpaceHandler creates a handler over an address space.
func NewAddressSpaceHandler(space *AddressSpace, logger *slog.Logger) *AddressSpaceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AddressSpaceHandler{space: space, logger: logger}
}

// Browse returns the references of each described node, filtered by
// direction and reference type. Dangling references are omitted.
func (h *AddressSpaceHandler) Browse(nodesToBrowse []BrowseDescription, maxReferencesPerNode uint32) []BrowseResult {
	results := make([]BrowseResult, len(nodesToBrowse))
	for i, desc := range nodesToBrowse {
		results[i] = h.browseOne(desc, maxReferencesPerNode)
	}
	return results
}

func (h *AddressSpaceHandler) browseOne(desc BrowseDescription, maxReferences uint32) BrowseResult {
	node := h.space.FindObject(desc.NodeID)
	if node == nil {
		return BrowseResult{StatusCode: StatusBadNodeIdUnknown}
	}
	if desc.BrowseDirection > BrowseDirectionBoth {
		return BrowseResult{StatusCode: StatusBadBrowseDirectionInvalid}
	}

	var refs []ReferenceDescription
	for _, ref := range node.References() {
		switch desc.BrowseDirection {
		case BrowseDirectionForward:
			if !ref.IsForward {
				continue
			}
		case BrowseDirectionInverse:
			if ref.IsForward {
				continue
			}
		}
		if !h.space.referenceTypeMatches(ref.ReferenceType, desc.ReferenceTypeID, desc.IncludeSubtypes) {
			continue
		}

		target := h.space.FindObject(ref.NodeID)
		if target == nil {
			continue
		}
		if desc.NodeClassMask != 0 && uint32(target.NodeClass())&desc.NodeClassMask == 0 {
			continue
		}

		refTypeID := NodeID{}
		if rt := h.space.FindReferenceType(ref.ReferenceType); rt != nil {
			refTypeID = rt.NodeID()
		}

		refs = append(refs, ReferenceDescription{
			ReferenceTypeID: refTypeID,
			IsForward:       ref.IsForward,
			NodeID:          ref.NodeID,
			BrowseName:      target.BrowseName(),
			DisplayName:     target.DisplayName(),
			NodeClass:       target.NodeClass(),
		})

		if maxReferences > 0 && uint32(len(refs)) >= maxReferences {
			break
		}
	}

	return BrowseResult{StatusCode: StatusGood, References: refs}
}

// TranslateBrowsePathsToNodeIds resolves each browse path against the
// address space.
func (h *AddressSpaceHandler) TranslateBrowsePathsToNodeIds(browsePaths []BrowsePath) []BrowsePathResult {
	results := make([]BrowsePathResult, len(browsePaths))
	for i, path := range browsePaths {
		results[i] = h.space.TranslateBrowsePath(path)
	}
	return results
}

// Read reads one attribute per operand.
func (h *AddressSpaceHandler) Read(nodesToRead []ReadValueID) []DataValue {
	results := make([]DataValue, len(nodesToRead))
	for i, rv := range nodesToRead {
		node := h.space.FindObject(rv.NodeID)
		if node == nil {
			results[i] = DataValue{StatusCode: StatusBadNodeIdUnknown}
			continue
		}
		results[i] = node.ReadAttribute(rv.AttributeID)
	}
	return results
}

// Write writes the Value attribute of Variable nodes. Other node classes
// are not writable; other attributes are not supported.
func (h *AddressSpaceHandler) Write(nodesToWrite []WriteValue) []StatusCode {
	results := make([]StatusCode, len(nodesToWrite))
	for i, wv := range nodesToWrite {
		node := h.space.FindObject(wv.NodeID)
		if node == nil {
			results[i] = StatusBadNodeIdUnknown
			continue
		}
		if wv.AttributeID != AttributeValue {
			results[i] = StatusBadNotSupported
			continue
		}
		variable, ok := node.(*VariableNode)
		if !ok {
			results[i] = StatusBadNotWritable
			continue
		}
		value := wv.Value
		if value.ServerTimestamp.IsZero() {
			value.ServerTimestamp = time.Now()
		}
		variable.SetValue(value)
		results[i] = StatusGood
	}
	return results
}
