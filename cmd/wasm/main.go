//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/inamate/figcore/internal/document"
	"github.com/inamate/figcore/internal/engine"
	"github.com/inamate/figcore/internal/metrics"
	"github.com/inamate/figcore/internal/style"
)

var eng *engine.Engine

func main() {
	opts := document.Options{}
	if fonts, err := metrics.New(); err == nil {
		opts.Measurer = fonts
	}
	eng = engine.NewEngine(style.Builtin(), opts)

	// Create the engine API object
	figEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	figEngine.Set("loadDocument", js.FuncOf(loadDocument))
	figEngine.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	figEngine.Set("setSelection", js.FuncOf(setSelection))
	figEngine.Set("selectAt", js.FuncOf(selectAt))
	figEngine.Set("move", js.FuncOf(move))
	figEngine.Set("resize", js.FuncOf(resize))
	figEngine.Set("align", js.FuncOf(align))
	figEngine.Set("rescale", js.FuncOf(rescale))
	figEngine.Set("setProperty", js.FuncOf(setProperty))
	figEngine.Set("copyStyle", js.FuncOf(copyStyle))
	figEngine.Set("pasteStyle", js.FuncOf(pasteStyle))
	figEngine.Set("undo", js.FuncOf(undo))
	figEngine.Set("redo", js.FuncOf(redo))

	// --- Queries (frontend ← backend) ---
	figEngine.Set("render", js.FuncOf(render))
	figEngine.Set("renderDirty", js.FuncOf(renderDirty))
	figEngine.Set("hitTest", js.FuncOf(hitTest))
	figEngine.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	figEngine.Set("getDocument", js.FuncOf(getDocument))
	figEngine.Set("getSelection", js.FuncOf(getSelection))
	figEngine.Set("getHistory", js.FuncOf(getHistory))

	// Register on global scope
	js.Global().Set("figEngine", figEngine)

	// Signal that WASM is ready
	js.Global().Set("figWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func result(err error) interface{} {
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

// --- Command Handlers ---

func loadDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing document JSON"})
	}
	return result(eng.LoadDocument(args[0].String()))
}

func loadSampleDocument(this js.Value, args []js.Value) interface{} {
	figureID := "fig_sample"
	if len(args) > 0 && args[0].Type() == js.TypeString {
		figureID = args[0].String()
	}

	eng.LoadSampleDocument(figureID)
	return result(nil)
}

func setSelection(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeObject {
		return result(eng.SetSelection(nil))
	}

	arr := args[0]
	length := arr.Length()
	keys := make([]string, length)
	for i := 0; i < length; i++ {
		keys[i] = arr.Index(i).String()
	}
	return result(eng.SetSelection(keys))
}

func selectAt(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	return js.ValueOf(eng.SelectAt(args[0].Float(), args[1].Float()))
}

func move(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.Move(args[0].Float(), args[1].Float()))
}

func resize(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return js.ValueOf(map[string]interface{}{"error": "usage: resize(handle, dx, dy)"})
	}
	return result(eng.Resize(args[0].String(), args[1].Float(), args[2].Float()))
}

func align(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing locus"})
	}
	return result(eng.Align(args[0].String()))
}

func rescale(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.Rescale(args[0].Float()))
}

// setProperty(name, valueJSON)
func setProperty(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(map[string]interface{}{"error": "usage: setProperty(name, valueJSON)"})
	}
	return result(eng.SetProperty(args[0].String(), args[1].String()))
}

func copyStyle(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.CopyStyle())
}

func pasteStyle(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.PasteStyle())
}

func undo(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Undo())
}

func redo(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Redo())
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Render())
}

func renderDirty(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.RenderDirty())
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	x := args[0].Float()
	y := args[1].Float()
	return js.ValueOf(eng.HitTest(x, y))
}

func getSelectionBounds(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetSelectionBounds())
}

func getDocument(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetDocument())
}

func getSelection(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetSelection())
}

func getHistory(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetHistory())
}
