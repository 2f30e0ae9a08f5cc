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
	"bytes"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// String returns the canonical string form of the NodeID:
// "i=M" / "ns=N;i=M" / "ns=N;s=..." / "ns=N;g=..." / "ns=N;b=...".
// The namespace prefix is omitted for namespace 0.
func (n NodeID) String() string {
	var sb strings.Builder
	if n.Namespace != 0 {
		sb.WriteString("ns=")
		sb.WriteString(strconv.FormatUint(uint64(n.Namespace), 10))
		sb.WriteByte(';')
	}
	switch n.Type {
	case NodeIDTypeNumeric:
		sb.WriteString("i=")
		sb.WriteString(strconv.FormatUint(uint64(n.Numeric), 10))
	case NodeIDTypeString:
		sb.WriteString("s=")
		sb.WriteString(n.Text)
	case NodeIDTypeGUID:
		sb.WriteString("g=")
		sb.WriteString(uuid.UUID(n.GUID).String())
	case NodeIDTypeOpaque:
		sb.WriteString("b=")
		sb.WriteString(base64.StdEncoding.EncodeToString(n.Opaque))
	}
	return sb.String()
}

// Equal reports whether two NodeIDs are structurally equal.
func (n NodeID) Equal(other NodeID) bool {
	if n.Type != other.Type || n.Namespace != other.Namespace {
		return false
	}
	switch n.Type {
	case NodeIDTypeNumeric:
		return n.Numeric == other.Numeric
	case NodeIDTypeString:
		return n.Text == other.Text
	case NodeIDTypeGUID:
		return n.GUID == other.GUID
	case NodeIDTypeOpaque:
		return bytes.Equal(n.Opaque, other.Opaque)
	}
	return false
}

// IsNull reports whether the NodeID is the null NodeID (ns=0;i=0).
func (n NodeID) IsNull() bool {
	return n.Type == NodeIDTypeNumeric && n.Namespace == 0 && n.Numeric == 0
}

// key returns the canonical form used as a map key. Hashing a NodeID is
// hashing its canonical string.
func (n NodeID) key() string {
	return n.String()
}

// ParseNodeID parses the OPC UA string form of a NodeID: "i=M", "ns=N;i=M",
// "ns=N;s=...", "ns=N;g=<uuid>", "ns=N;b=<base64>". A bare identifier with
// no "ns=" prefix defaults to namespace 0.
func ParseNodeID(s string) (NodeID, error) {
	if s == "" {
		return NodeID{}, fmt.Errorf("%w: empty string", ErrInvalidNodeID)
	}

	var namespace uint16
	rest := s
	if strings.HasPrefix(rest, "ns=") {
		semi := strings.Index(rest, ";")
		if semi < 0 {
			return NodeID{}, fmt.Errorf("%w: missing identifier after namespace in %q", ErrInvalidNodeID, s)
		}
		ns, err := strconv.ParseUint(rest[3:semi], 10, 16)
		if err != nil {
			return NodeID{}, fmt.Errorf("%w: bad namespace in %q", ErrInvalidNodeID, s)
		}
		namespace = uint16(ns)
		rest = rest[semi+1:]
	}

	if len(rest) < 2 || rest[1] != '=' {
		return NodeID{}, fmt.Errorf("%w: %q", ErrInvalidNodeID, s)
	}

	value := rest[2:]
	switch rest[0] {
	case 'i':
		id, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return NodeID{}, fmt.Errorf("%w: bad numeric identifier in %q", ErrInvalidNodeID, s)
		}
		return NewNumericNodeID(namespace, uint32(id)), nil
	case 's':
		return NewStringNodeID(namespace, value), nil
	case 'g':
		guid, err := uuid.Parse(value)
		if err != nil {
			return NodeID{}, fmt.Errorf("%w: bad GUID in %q", ErrInvalidNodeID, s)
		}
		return NewGUIDNodeID(namespace, guid), nil
	case 'b':
		data, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			return NodeID{}, fmt.Errorf("%w: bad opaque identifier in %q", ErrInvalidNodeID, s)
		}
		return NewOpaqueNodeID(namespace, data), nil
	default:
		return NodeID{}, fmt.Errorf("%w: unknown identifier type %q in %q", ErrInvalidNodeID, rest[:1], s)
	}
}

// MustParseNodeID parses a NodeID and panics on malformed input. Intended
// for static identifiers in initialisation code.
func MustParseNodeID(s string) NodeID {
	id, err := ParseNodeID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// looksLikeNodeID reports whether a string is in NodeID syntax rather than
// a browse name. Browse names never begin with "i=" or "ns=".
func looksLikeNodeID(s string) bool {
	return strings.HasPrefix(s, "i=") || strings.HasPrefix(s, "ns=") ||
		strings.HasPrefix(s, "s=") || strings.HasPrefix(s, "g=") || strings.HasPrefix(s, "b=")
}
