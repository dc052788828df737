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

/*Package interval parses and validates the genomic region descriptors used to
  address tracked codons.  Text descriptors use samtools' 1-based, closed
  [contig ID]:[first pos]-[last pos] convention; internally regions are 0-based
  and half-open, like the rest of this module.
*/
package interval
