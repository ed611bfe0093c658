package controllers

// SetExit replaces the process exit of the run controller.
func (it *RunController) SetExit(exit func(code int)) { it.exit = exit }

// SetExit replaces the process exit of the list controller.
func (it *ListController) SetExit(exit func(code int)) { it.exit = exit }

// SetExit replaces the process exit of the placeholders controller.
func (it *PlaceholdersController) SetExit(exit func(code int)) { it.exit = exit }
