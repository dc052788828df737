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
bio-spike classifies SARS-CoV-2 spike-protein mutations in Sanger reads.

The run subcommand basecalls .ab1 traces with tracy (or takes fasta/fastq
reads), aligns them to NC_045512 with bowtie2 and samtools, and writes one
results.csv row per sample: a 0/1/NA cell per tracked mutation and a comment
naming found mutations, matched lineages and quality warnings.

The classify subcommand runs only the classification step over a directory of
existing BAM files, and the pileup subcommand prints the pileup text of one
region.

Sample usage:
bio-spike run \
    -reference ref/NC_045512.fasta \
    -outdir 2021-03-01 \
    plate.zip

External tools are looked up in $PATH, or in $BIO_SPIKE_SAMTOOLS,
$BIO_SPIKE_BOWTIE2 and $BIO_SPIKE_TRACY.
*/
package main
