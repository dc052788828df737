// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package spike

// LineageMatch is a lineage signature matched by a sample's found mutations.
type LineageMatch struct {
	Name string
	// Confirmed is set when every signature mutation was found and nothing
	// else was.  Otherwise at most one signature mutation is missing and at
	// most one other mutation was found.
	Confirmed bool
}

// MatchLineages compares the mutations found in one sample against the
// catalogue's lineage signatures.  Mutations that are Ignored never count as
// extras.  Signatures with more than one missing or more than one extra
// mutation are omitted.  Results follow signature order.
func (c *Catalogue) MatchLineages(found map[string]bool) []LineageMatch {
	var matches []LineageMatch
	for _, lin := range c.lineages {
		inSig := make(map[string]bool, len(lin.Mutations))
		missing := 0
		for _, id := range lin.Mutations {
			inSig[id] = true
			if !found[id] {
				missing++
			}
		}
		extra := 0
		for id, ok := range found {
			if ok && !inSig[id] && !c.ignored[id] {
				extra++
			}
		}
		switch {
		case missing == 0 && extra == 0:
			matches = append(matches, LineageMatch{Name: lin.Name, Confirmed: true})
		case missing <= 1 && extra <= 1:
			matches = append(matches, LineageMatch{Name: lin.Name})
		}
	}
	return matches
}
