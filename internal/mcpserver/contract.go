package mcpserver

// RuleContract is the canonical authoring contract for validation rules.
// It is exposed as the contenthooks://rule-contract resource and via the
// get_rule_contract tool so integrating clients can learn the rule model
// without reading source code.
const RuleContract = `# Validation Rule Contract

Every validation rule registered with contenthooks follows this contract.

## Identity

- ` + "`id`" + `: unique across all categories. Convention: short kebab-case,
  e.g. ` + "`team-name-required`" + `, ` + "`season-date-overlap`" + `.
- ` + "`category`" + `: the content category the rule applies to
  (` + "`team`" + `, ` + "`player`" + `, ` + "`season`" + `, ` + "`league-standing`" + `, ...).
  Rules only ever see payloads of their own category.

## Severity

- ` + "`critical`" + `: a failure blocks the operation when strict validation
  is enabled. With strict validation off, the failure is downgraded to a
  warning in the aggregate result and the operation proceeds.
- ` + "`warning`" + `: a failure is reported but never blocks the operation.

## Ordering and dependencies

- ` + "`priority`" + `: lower numbers run earlier. Ties are broken by
  registration order, so evaluation order is deterministic.
- ` + "`depends_on`" + `: ids of rules in the same category that must run
  first. Dependencies must already be registered; registration fails on an
  unknown id or a cycle. A disabled dependency is treated as satisfied.

## Evaluation

A rule receives the candidate payload, optional existing data (for
duplicate and overlap checks), and its current config map. It returns an
outcome (passed or failed, with a message and an optional suggestion) or
an error. Rules must be side-effect free and respect their context: each
evaluation runs under a per-rule deadline, and a rule that exceeds it is
reported as timed out rather than blocking the batch.

## Failure reporting

A failed outcome carries:

- ` + "`message`" + `: what is wrong, in terms of the payload fields.
- ` + "`suggestion`" + ` (optional): how to fix it.

All enabled rules run even after a critical failure, so one validation
pass reports every problem at once.

## Configuration

Rules may read tunables from their config map (e.g. ` + "`min_length`" + `).
Config is updatable at runtime; missing keys must fall back to sensible
defaults inside the rule.
`
