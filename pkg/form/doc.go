/*
Package form maps between the transient values of an editing frame and the
typed configuration model.

An EditedEntity is what a frame edits: scalar values, named step lists,
declared parameters, an object-shaped argument map and an executor slot. The
slot is a tagged union; at most one of its embedded or referenced variants is
populated at any time and every setter is a single transition.

Bridge.ToModel is the one path through which every save passes. It validates
required fields, resolves references through the registry, then hands a draft
to the parser so the committed node is exactly what the parser would produce
from the document.
*/
package form
