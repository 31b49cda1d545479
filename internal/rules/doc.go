// Package rules implements the declarative rule language that classifies
// resources and derives their directory paths.
//
// Rules are plain JSON (or YAML) documents. Three kinds exist:
//
//   - Classification: gated by a Requirement, assigns a tag value computed
//     by a value provider into the resource's tag map.
//   - Structure: gated by a Requirement, renders a path fragment from
//     literals and provided values; ranked by weight, optionally dominant.
//   - Tag definition: lists the admissible items of a tag.
//
// Requirements, value providers and actions are closed sum types decoded
// from a "type" discriminant. An unknown requirement evaluates to false,
// an unknown provider or action is a configuration error when evaluated.
//
// All evaluation functions are pure functions of their inputs. A Session
// scopes named providers for one evaluation call tree and must not be
// shared between resources.
package rules
