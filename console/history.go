package console

// Action is an undoable edit made by a console command.
type Action interface {
	Execute() error
	Undo()
	Description() string
}

// History keeps bounded undo/redo stacks.
type History struct {
	undoStack []Action
	redoStack []Action
	maxDepth  int
}

func NewHistory(maxDepth int) *History {
	return &History{
		undoStack: make([]Action, 0, maxDepth),
		redoStack: make([]Action, 0, maxDepth),
		maxDepth:  maxDepth,
	}
}

// Do executes a and records it. A failed action is not recorded.
func (h *History) Do(a Action) error {
	if err := a.Execute(); err != nil {
		return err
	}
	h.undoStack = append(h.undoStack, a)
	if len(h.undoStack) > h.maxDepth {
		h.undoStack = h.undoStack[1:]
	}
	h.redoStack = h.redoStack[:0]
	return nil
}

// Undo reverts the last action and returns it, or nil if there is none.
func (h *History) Undo() Action {
	if len(h.undoStack) == 0 {
		return nil
	}
	a := h.undoStack[len(h.undoStack)-1]
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	a.Undo()
	h.redoStack = append(h.redoStack, a)
	return a
}

// Redo reapplies the last undone action and returns it, or nil.
func (h *History) Redo() (Action, error) {
	if len(h.redoStack) == 0 {
		return nil, nil
	}
	a := h.redoStack[len(h.redoStack)-1]
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	if err := a.Execute(); err != nil {
		return nil, err
	}
	h.undoStack = append(h.undoStack, a)
	return a, nil
}

func (h *History) CanUndo() bool { return len(h.undoStack) > 0 }
func (h *History) CanRedo() bool { return len(h.redoStack) > 0 }

func (h *History) Clear() {
	h.undoStack = h.undoStack[:0]
	h.redoStack = h.redoStack[:0]
}
