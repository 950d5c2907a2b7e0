// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package workloads

import (
	"strconv"
	"strings"

	"github.com/4nuit/mthread/simplemr"
)

// WordCount runs simplemr.MR over docs, counting occurrences of each
// whitespace-separated word. simplemr's mappers run as mthread threads
// (see simplemr.MR.runMappers), so this demonstrates the runtime driving
// a realistic multi-stage concurrent framework rather than only its own
// scenarios.
func WordCount(docs []string, nMappers int) (map[string]int, error) {
	input := make(chan *simplemr.Record, len(docs))
	for i, doc := range docs {
		input <- &simplemr.Record{Key: strconv.Itoa(i), Values: []interface{}{doc}}
	}
	close(input)

	output := make(chan *simplemr.Record, 16)
	mr := &simplemr.MR{NumMappers: nMappers}

	counts := make(map[string]int)
	done := make(chan error, 1)
	go func() {
		for rec := range output {
			for _, v := range rec.Values {
				counts[rec.Key] += v.(int)
			}
		}
		done <- nil
	}()

	err := mr.Run(input, output, wordCountMapper{}, wordCountReducer{})
	<-done
	if err != nil {
		return nil, err
	}
	return counts, nil
}

type wordCountMapper struct{}

func (wordCountMapper) Map(mr *simplemr.MR, key string, value interface{}) error {
	doc := value.(string)
	for _, word := range strings.Fields(doc) {
		mr.MapOut(strings.ToLower(word), 1)
	}
	return nil
}

type wordCountReducer struct{}

func (wordCountReducer) Reduce(mr *simplemr.MR, key string, values []interface{}) error {
	total := 0
	for _, v := range values {
		total += v.(int)
	}
	mr.ReduceOut(key, total)
	return nil
}
