// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package httpwire

// Method is a closed enumeration of the common HTTP/1.x request methods.
// Spec §9 explicitly does not require method-token validation at parse
// time (any non-whitespace ASCII is accepted as the raw method); this is
// purely an informational classification on top of that, free because the
// teacher's architecture already does it for its own method set.
type Method uint8

const (
	MUndef Method = iota
	MGet
	MHead
	MPost
	MPut
	MDelete
	MConnect
	MOptions
	MTrace
	MPatch
	MOther // must stay last
)

var method2Name = [MOther + 1][]byte{
	MUndef:   []byte(""),
	MGet:     []byte("GET"),
	MHead:    []byte("HEAD"),
	MPost:    []byte("POST"),
	MPut:     []byte("PUT"),
	MDelete:  []byte("DELETE"),
	MConnect: []byte("CONNECT"),
	MOptions: []byte("OPTIONS"),
	MTrace:   []byte("TRACE"),
	MPatch:   []byte("PATCH"),
	MOther:   []byte("OTHER"),
}

// Name returns the canonical ASCII method name.
func (m Method) Name() []byte {
	if m > MOther {
		return method2Name[MUndef]
	}
	return method2Name[m]
}

// String implements fmt.Stringer.
func (m Method) String() string {
	return string(m.Name())
}

var methNameLookup = func() map[string]Method {
	m := make(map[string]Method, MOther-MUndef)
	for i := MUndef + 1; i < MOther; i++ {
		m[string(method2Name[i])] = i
	}
	return m
}()

// GetMethodNo resolves an uppercased ASCII method name to its enum value,
// returning MUndef for an empty name and MOther for anything else
// unrecognized (including a name that isn't uppercase — callers pass the
// already-uppercased value).
func GetMethodNo(name []byte) Method {
	if len(name) == 0 {
		return MUndef
	}
	if m, ok := methNameLookup[string(name)]; ok {
		return m
	}
	return MOther
}
