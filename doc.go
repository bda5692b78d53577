/*
 * Copyright 2021 National Library of Norway.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *       http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package gonist allows decoding, creating and validating ANSI/NIST-ITL files.

# ANSI/NIST-ITL

ANSI/NIST-ITL is the data format used to exchange biometric information such as fingerprints and facial images
between agencies. A file is a sequence of records. Every file starts with one Type-1 (transaction information)
record whose field 1.003 (CNT) lists the other records. Tagged records (Type-2, 9, 10, 13 and 14) consist of
fields of the form "type.field:value" separated by group separators. Type-4 records hold binary fingerprint
images with a fixed 18 byte header.

# Decode files

[Decode] parses a buffer into a [File]. Binary data refers to the input buffer without copying. The decoded
file is validated and default values are provided for missing fields.

# Encode files

[Encode] validates a [File], computes the automatic fields (LEN, IDC, CNT and the character set in 1.015) with
[Populate] and serializes the result into a buffer of exactly the computed length.

# Field rules

Rules for individual fields are given as [CodecOptions] with [WithCodecOptions]. Rules can be shared by all types
of transaction or specific to one. A rule value is either a literal or computed from the visited field and file,
see [Literal] and [Computed]. The package pkg/rules loads such rules from YAML documents.

# Validation

[Validate] stops at the first failing field. [Report] collects every failure in a [Validation].
Failures of mandatory checks and of other checks can be ignored with [WithIgnoreMissingMandatoryFields] and
[WithIgnoreValidationChecks].
*/
package gonist
