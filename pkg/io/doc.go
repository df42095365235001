// Package io provides JSON import and export for patch graphs and delta
// batches.
//
// # Overview
//
// Two file shapes are supported:
//
//   - Tree snapshots: the nested node tree plus the arc list, readable by
//     hand and by hosts that store the graph directly.
//   - Delta batches: the wire form of [delta.Delta], as produced by
//     [ot.DeltasFromGraph] or written by an editor.
//
// [Sniff] tells the two apart from the first JSON token.
//
// # Tree Format
//
//	{
//	  "nodes": {
//	    "lfo_1": {
//	      "_props": {"kind": "lfo", "pos": [10, 10]},
//	      "sine": {"_props": {"kind": "outlet"}},
//	      "fm_cv": {"_props": {"kind": "inlet"}}
//	    },
//	    "vca_1": {
//	      "signal": {},
//	      "output": {"_props": {"kind": "outlet"}}
//	    }
//	  },
//	  "arcs": [
//	    ["lfo_1.sine", "vca_1.signal"],
//	    ["vca_1.output", "lfo_1.fm_cv"]
//	  ]
//	}
//
// Every key of a node object other than "_props" is a child. Child order in
// the file is the insertion order of the imported graph, so a round trip
// through [WriteJSON] and [ReadJSON] preserves it. Property keys are written
// sorted.
//
// # Import
//
// Use [ImportJSON] to read a tree snapshot from a file path, or [ReadJSON]
// to read from any io.Reader:
//
//	g, err := io.ImportJSON("patch.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Names containing dots, duplicate arcs and arcs that are not two distinct
// paths are rejected. Arc endpoints are not required to exist.
//
// # Delta Batches
//
// [ReadDeltas], [WriteDeltas], [ImportDeltas] and [ExportDeltas] move delta
// batches to and from JSON. Decoding does not validate required fields;
// that is left to the apply engine so a malformed delta is reported rather
// than refused at the door.
//
// [delta.Delta]: github.com/worldmaking/gotlib/pkg/delta.Delta
// [ot.DeltasFromGraph]: github.com/worldmaking/gotlib/pkg/ot.DeltasFromGraph
package io
