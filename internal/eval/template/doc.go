// Package template provides a Handlebars template engine whose helpers are
// filters from a filter.Registry.
//
// Every static filter is available as a helper taking the filtered value,
// further positional arguments and optional hash arguments. Dynamic filters
// are reached through the generic "filter" helper.
//
// Raymond helpers have a fixed arity, so within one template a filter must be
// called with the same number of positional arguments everywhere. A bare
// mustache such as {{length}} has no arguments and always reads the data
// field; a template may not use the same name both ways.
//
// Example usage:
//
//	reg := filter.NewRegistry()
//	builtin.Install(reg)
//	engine := template.NewEngine(reg, logger)
//
//	data := map[string]interface{}{
//	    "state": map[string]interface{}{
//	        "message": "Hello <World>",
//	        "priority": "high",
//	    },
//	}
//
//	template := "Message: {{state.message}}\nPriority: {{upper state.priority}}"
//	result, err := engine.Render(template, data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// Output: Message: Hello &lt;World&gt;
//	//         Priority: HIGH
//
// Filters returning filter.Markup are emitted without escaping, and helper
// results marked safe by raymond reach filters as filter.Markup:
//
//	{{upper name}}                        # "JOHN"
//	{{default nickname fallback="N/A"}}   # "N/A" if nickname is empty
//	{{join tags sep=" | "}}               # "a | b | c"
//	{{join tags " | "}}                   # same, positional
//	{{contains bio "go"}}                 # "true"
//	{{safe (escape bio)}}                 # escaped once, not twice
//	{{filter "shout" name}}               # dynamic filter
//
// RenderPipeline applies post filters to the rendered output through the
// content-aware entry point, starting from an HTML context:
//
//	out, contentType, err := engine.RenderPipeline(template, data, "striptags", "upper")
package template
