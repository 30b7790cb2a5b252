// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
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

package ndef

import (
	"errors"
	"fmt"

	gondef "github.com/hsanjuan/go-ndef"
)

// Text record constants.
const (
	TextRecordType    = "T"
	DefaultLanguage   = "en"
	textUTF16Flag     = 0x80
	textLangCodeMask  = 0x3F
	maxLanguageLength = 63
)

// Text record errors.
var (
	ErrTextPayloadTooShort  = errors.New("ndef: text payload too short")
	ErrTextLanguageTooLong  = errors.New("ndef: language code too long")
	ErrTextPayloadTruncated = errors.New("ndef: text payload truncated")
	ErrNotTextRecord        = errors.New("ndef: not a well-known text record")
)

// TextRecord is the decoded content of a Text record payload.
type TextRecord struct {
	Text     string
	Language string
	UTF16    bool
}

// EncodeTextMessage returns a message holding one UTF-8 Text record. An
// empty language means "en". The payload must fit a short record.
func EncodeTextMessage(text, language string) ([]byte, error) {
	if language == "" {
		language = DefaultLanguage
	}
	if len(language) > maxLanguageLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrTextLanguageTooLong, len(language))
	}
	if n := 1 + len(language) + len(text); n > MaxShortPayload {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, n)
	}

	msg := gondef.NewMessageFromRecords(gondef.NewTextRecord(text, language))
	data, err := msg.Marshal()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return data, nil
}

// ParseTextRecord decodes a Text record payload.
func ParseTextRecord(payload []byte) (*TextRecord, error) {
	if len(payload) < 1 {
		return nil, ErrTextPayloadTooShort
	}

	status := payload[0]
	langLen := int(status & textLangCodeMask)
	if len(payload) < 1+langLen {
		return nil, ErrTextPayloadTruncated
	}

	return &TextRecord{
		Language: string(payload[1 : 1+langLen]),
		Text:     string(payload[1+langLen:]),
		UTF16:    status&textUTF16Flag != 0,
	}, nil
}

// DecodeText parses a message and returns the text of its first record.
func DecodeText(data []byte) (string, error) {
	msg := &gondef.Message{}
	if _, err := msg.Unmarshal(data); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	if len(msg.Records) == 0 {
		return "", ErrNotTextRecord
	}

	rec := msg.Records[0]
	if rec.TNF() != gondef.NFCForumWellKnownType || rec.Type() != TextRecordType {
		return "", ErrNotTextRecord
	}
	payload, err := rec.Payload()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	tr, err := ParseTextRecord(payload.Marshal())
	if err != nil {
		return "", err
	}
	return tr.Text, nil
}
