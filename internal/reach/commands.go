package reach

import "github.com/tidwall/gjson"

// fieldRule extracts one referenced name (or animation id) from an event
// command's parameter list.
type fieldRule struct {
	kind   Kind
	index  int
	member string // read params[index].member instead of params[index]
	id     bool   // value is an animation id
}

func name(k Kind, i int) fieldRule     { return fieldRule{kind: k, index: i} }
func audio(k Kind, i int) fieldRule    { return fieldRule{kind: k, index: i, member: "name"} }
func animationID(i int) fieldRule      { return fieldRule{index: i, id: true} }
func rules(r ...fieldRule) []fieldRule { return r }

// moveRouteStep carries one move-route sub-command in parameters[0].
const moveRouteStep = 505

// commandRules lists the filename-bearing event commands. Every other opcode
// is ignored.
var commandRules = map[int64][]fieldRule{
	101: rules(name(Faces, 0)),                                              // show text
	132: rules(audio(BGM, 0)),                                               // change battle bgm
	133: rules(audio(ME, 0)),                                                // change victory me
	139: rules(audio(ME, 0)),                                                // change defeat me
	140: rules(audio(BGM, 1)),                                               // change vehicle bgm
	212: rules(animationID(1)),                                              // show animation
	231: rules(name(Pictures, 1)),                                           // show picture
	241: rules(audio(BGM, 0)),                                               // play bgm
	245: rules(audio(BGS, 0)),                                               // play bgs
	249: rules(audio(ME, 0)),                                                // play me
	250: rules(audio(SE, 0)),                                                // play se
	261: rules(name(Movies, 0)),                                             // play movie
	283: rules(name(Battlebacks1, 0), name(Battlebacks2, 1)),                // change battle back
	284: rules(name(Parallaxes, 0)),                                         // change parallax
	322: rules(name(Faces, 1), name(Characters, 3), name(ActorBattlers, 5)), // change actor images
	323: rules(name(Faces, 1)),                                              // change vehicle image
	337: rules(animationID(1)),                                              // show battle animation

	// parameters[0] is a {code, parameters} sub-command, see routeRules.
	moveRouteStep: nil,
}

// routeRules applies to the sub-command wrapped by a move-route step.
var routeRules = map[int64][]fieldRule{
	41: rules(name(Characters, 0)), // change character image
	44: rules(audio(SE, 0)),        // play se
}

// interpret walks an event command list and records every referenced name.
// Commands without a parameter list are skipped; a listed parameter that is
// absent or mistyped is a FieldError.
func interpret(set *Set, list value) error {
	return list.each(func(cmd value) error {
		code := cmd.field("code")
		if code.Type != gjson.Number || code.Int() == 0 {
			return nil
		}
		op := code.Int()
		table, ok := commandRules[op]
		if !ok {
			return nil
		}

		params := cmd.field("parameters")
		if !params.Exists() || params.null() {
			return nil
		}
		if !params.IsArray() {
			return params.wrongType("array")
		}

		if op == moveRouteStep {
			return interpretRouteStep(set, params)
		}
		return apply(set, params, table)
	})
}

func interpretRouteStep(set *Set, params value) error {
	step := params.index(0)
	if !step.Exists() {
		return step.fail(ErrIndexRange)
	}
	if err := step.object(); err != nil {
		return err
	}

	sub, err := step.field("code").int()
	if err != nil {
		return err
	}
	table, ok := routeRules[sub]
	if !ok {
		return nil
	}

	subParams := step.field("parameters")
	if _, err := subParams.array(); err != nil {
		return err
	}
	return apply(set, subParams, table)
}

func apply(set *Set, params value, table []fieldRule) error {
	for _, r := range table {
		v := params.index(r.index)
		if !v.Exists() {
			return v.fail(ErrIndexRange)
		}
		if r.member != "" {
			if err := v.object(); err != nil {
				return err
			}
			v = v.field(r.member)
		}

		if r.id {
			id, err := v.int()
			if err != nil {
				return err
			}
			if id > 0 {
				set.AddAnimationID(uint64(id))
			}
			continue
		}

		if err := v.name(set, r.kind); err != nil {
			return err
		}
	}
	return nil
}
