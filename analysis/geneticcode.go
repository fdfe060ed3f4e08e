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

package analysis

// Ambiguous is the amino acid reported for a codon that does not resolve to
// a single residue.
const Ambiguous = 'X'

// Stop is the residue reported for stop codons.
const Stop = '*'

const bases = "TCAG"

// standardCode is the standard genetic code indexed by
// 16*idx(b1) + 4*idx(b2) + idx(b3), with idx from bases.
const standardCode = "FFLLSSSSYY**CC*WLLLLPPPPHHQQRRRRIIIMTTTTNNKKSSRRVVVVAAAADDEEGGGG"

// iupac maps each nucleotide code to the bases it stands for.
var iupac = map[byte]string{
	'A': "A", 'C': "C", 'G': "G", 'T': "T", 'U': "T",
	'R': "AG", 'Y': "CT", 'S': "CG", 'W': "AT", 'K': "GT", 'M': "AC",
	'B': "CGT", 'D': "AGT", 'H': "ACT", 'V': "ACG", 'N': "ACGT",
}

func baseIndex(b byte) int {
	switch b {
	case 'T':
		return 0
	case 'C':
		return 1
	case 'A':
		return 2
	default:
		return 3
	}
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

// TranslateCodon returns the amino acid for a three-base codon under the
// standard genetic code. IUPAC ambiguity codes are expanded; the result is
// Ambiguous unless every expansion encodes the same residue. Gaps and
// unknown characters yield Ambiguous.
func TranslateCodon(codon string) byte {
	if len(codon) != 3 {
		return Ambiguous
	}
	var exp [3]string
	for i := 0; i < 3; i++ {
		e, ok := iupac[upper(codon[i])]
		if !ok {
			return Ambiguous
		}
		exp[i] = e
	}
	var aa byte
	for _, b1 := range []byte(exp[0]) {
		for _, b2 := range []byte(exp[1]) {
			for _, b3 := range []byte(exp[2]) {
				r := standardCode[16*baseIndex(b1)+4*baseIndex(b2)+baseIndex(b3)]
				if aa != 0 && r != aa {
					return Ambiguous
				}
				aa = r
			}
		}
	}
	return aa
}
