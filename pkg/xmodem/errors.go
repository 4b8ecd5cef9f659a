// Copyright 2026 The Kozos Authors.
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

package xmodem

import "errors"

// ErrBadFrame is returned by Decode when a frame's block-number
// complement or checksum does not validate.
var ErrBadFrame = errors.New("xmodem: malformed block frame")

// TransferError is a host-transfer failure, carrying the exit-code
// ordinal §9's host transmitter CLI table assigns it.
type TransferError struct {
	Code int
	msg  string
}

func (e *TransferError) Error() string { return e.msg }

// ExitCode returns the process exit code a host CLI should report for
// this error, per §6: SerialOpen=2, SerialWrite=3, TargetIllegalState=4,
// TargetIllegalResponse=5, FileOpen=6, FileSeek=7, FileRead=8.
func (e *TransferError) ExitCode() int { return e.Code }

// The host-transfer error taxonomy (§7), each paired with its exit-code
// ordinal (§6). NoError (0) and a generic failure (1) are reserved, the
// way the original transmitter reserves 0 for success and 1 for usage
// errors before any serial I/O is attempted.
var (
	ErrSerialOpen            = &TransferError{Code: 2, msg: "xmodem: serial open failed"}
	ErrSerialWrite           = &TransferError{Code: 3, msg: "xmodem: serial write failed"}
	ErrTargetIllegalState    = &TransferError{Code: 4, msg: "xmodem: illegal target state found"}
	ErrTargetIllegalResponse = &TransferError{Code: 5, msg: "xmodem: illegal target response found"}
	ErrFileOpen              = &TransferError{Code: 6, msg: "xmodem: file open failed"}
	ErrFileSeek              = &TransferError{Code: 7, msg: "xmodem: file seek failed"}
	ErrFileRead              = &TransferError{Code: 8, msg: "xmodem: file read failed"}
)
