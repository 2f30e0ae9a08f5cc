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
	"strconv"
	"strings"
)

// BrowsePathResult statuses follow the TranslateBrowsePathsToNodeIds
// service: BadNodeIdUnknown for an unknown starting node, BadNothingToDo
// for an empty path, BadBrowseNameInvalid for an empty final target name,
// BadNoMatch when the traversal produced no target.

// TranslateBrowsePath resolves a single browse path against the address
// space. Targets are produced in depth-first order; a target that consumed
// the whole path carries the RemainingPathComplete sentinel. Intermediate
// dead ends contribute nothing.
func (as *AddressSpace) TranslateBrowsePath(path BrowsePath) BrowsePathResult {
	result := as.translateBrowsePath(path)
	if as.metrics != nil {
		as.metrics.BrowsePathTranslations.WithLabelValues(result.StatusCode.String()).Inc()
	}
	return result
}

func (as *AddressSpace) translateBrowsePath(path BrowsePath) BrowsePathResult {
	start := as.FindObject(path.StartingNode)
	if start == nil {
		return BrowsePathResult{StatusCode: StatusBadNodeIdUnknown}
	}

	elements := path.RelativePath.Elements
	if len(elements) == 0 {
		return BrowsePathResult{StatusCode: StatusBadNothingToDo}
	}
	if len(elements) > as.maxBrowseDepth {
		return BrowsePathResult{StatusCode: StatusBadQueryTooComplex}
	}
	if elements[len(elements)-1].TargetName.Name == "" {
		return BrowsePathResult{StatusCode: StatusBadBrowseNameInvalid}
	}

	var targets []BrowsePathTarget
	as.explore(path.StartingNode, elements, 0, &targets)

	if len(targets) == 0 {
		return BrowsePathResult{StatusCode: StatusBadNoMatch}
	}
	return BrowsePathResult{StatusCode: StatusGood, Targets: targets}
}

// explore descends one element of the relative path from a node,
// recursing until the final element records its matches.
func (as *AddressSpace) explore(id NodeID, elements []RelativePathElement, index int, targets *[]BrowsePathTarget) {
	last := index == len(elements)-1
	for _, child := range as.BrowseNodeByTargetName(id, elements[index]) {
		if last {
			*targets = append(*targets, BrowsePathTarget{
				TargetID:           child,
				RemainingPathIndex: RemainingPathComplete,
			})
			continue
		}
		as.explore(child, elements, index+1, targets)
	}
}

// ConstructBrowsePath builds a BrowsePath from a compact textual form. The
// starting node is a NodeID string, or "/" for the Root folder (i=84). The
// path is split on "."; a segment may carry an "N:" prefix selecting the
// browse-name namespace. Every element browses forward over any reference
// type.
func ConstructBrowsePath(startingNode, path string) (BrowsePath, error) {
	var start NodeID
	if startingNode == "/" {
		start = IDRootFolder
	} else {
		var err error
		start, err = ParseNodeID(startingNode)
		if err != nil {
			return BrowsePath{}, err
		}
	}

	var elements []RelativePathElement
	for _, segment := range strings.Split(path, ".") {
		name := segment
		var namespace uint16
		if colon := strings.Index(segment, ":"); colon > 0 {
			ns, err := strconv.ParseUint(segment[:colon], 10, 16)
			if err != nil {
				return BrowsePath{}, fmt.Errorf("%w: bad namespace prefix in path segment %q", ErrInvalidNodeID, segment)
			}
			namespace = uint16(ns)
			name = segment[colon+1:]
		}
		elements = append(elements, RelativePathElement{
			ReferenceTypeID: NodeID{},
			IsInverse:       false,
			IncludeSubtypes: false,
			TargetName:      QualifiedName{NamespaceIndex: namespace, Name: name},
		})
	}

	return BrowsePath{
		StartingNode: start,
		RelativePath: RelativePath{Elements: elements},
	}, nil
}

// SimpleBrowsePath resolves a compact textual path and returns the last
// target's NodeID. The second result is false when the path did not
// resolve.
func (as *AddressSpace) SimpleBrowsePath(startingNode, path string) (NodeID, bool) {
	bp, err := ConstructBrowsePath(startingNode, path)
	if err != nil {
		return NodeID{}, false
	}

	result := as.TranslateBrowsePath(bp)
	if result.StatusCode != StatusGood || len(result.Targets) == 0 {
		return NodeID{}, false
	}
	return result.Targets[len(result.Targets)-1].TargetID, true
}
