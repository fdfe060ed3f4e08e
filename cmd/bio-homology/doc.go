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

/*
bio-homology manages alignments of virus genome sequences and the segments
that relate each member sequence to its alignment's reference.

Alignments form a tree. A child alignment's parent must be constrained by a
reference sequence that is itself a member of the child, which lets member
segments be translated into any ancestor's reference coordinates.

All commands operate on a badger database given by -db.

Sample usage:

	bio-homology load -db /tmp/hcv -alignments tree.yaml -fasta seqs.fa.gz -segments segs.tsv
	bio-homology load -db /tmp/hcv -fastq reads.fq.gz
	bio-homology set-parent -db /tmp/hcv AL_3a AL_MASTER
	bio-homology ancestors -db /tmp/hcv AL_3a
	bio-homology translate -db /tmp/hcv -alignment AL_3a -ref NC_004102 -all -out translated.tsv
	bio-homology coverage -db /tmp/hcv -alignment AL_MASTER -recursive -region NC_004102:342-9377 -all
	bio-homology derive -db /tmp/hcv -source AL_3a -target AL_MASTER -where '^KX' -strategy MERGE_PREFER_EXISTING
	bio-homology aa-freq -db /tmp/hcv -alignment AL_3a -region NC_004102:342-9377 -coding-start 342 -all
	bio-homology var-scan -db /tmp/hcv -alignment AL_MASTER -recursive -variations vars.yaml -all
	bio-homology export -db /tmp/hcv -alignment AL_3a -segments out.tsv.gz -fasta out.fa

The alignments manifest is a YAML list:

	- name: AL_MASTER
	  ref: NC_004102
	- name: AL_3a
	  ref: D17763
	  parent: AL_MASTER

A variations file is a YAML list of reference ranges and patterns over the
member bases aligned to them:

	- name: NS5A_Y93H
	  ref: NC_004102
	  region: 6536-6538
	  pattern: CA[CT]

Batch sizes and linkage handling are read from the YAML file given by -opts.
*/
package main
