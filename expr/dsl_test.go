package expr

import "github.com/cottand/symdag/value"

// build constructs a pre-canonical expression in a session. The returned
// handle is owned by the caller.
type build func(s *Session) Expr

func bSym(name string) build {
	return func(s *Session) Expr { return s.Symbol(name) }
}

func bNum(f float64) build {
	return func(s *Session) Expr { return s.Float(f) }
}

func bSum(parts ...build) build {
	return func(s *Session) Expr {
		b := s.NewSum()
		for _, p := range parts {
			e := p(s)
			b.Add(e)
			e.Release()
		}
		return b.Expr()
	}
}

func bTimes(c float64, part build) build {
	return func(s *Session) Expr {
		e := part(s)
		defer e.Release()
		return s.NewSum().AddScaled(value.Of(c), e).Expr()
	}
}

func bProd(parts ...build) build {
	return func(s *Session) Expr {
		b := s.NewProduct()
		for _, p := range parts {
			e := p(s)
			b.Mul(e)
			e.Release()
		}
		return b.Expr()
	}
}

func bPow(base build, p float64) build {
	return func(s *Session) Expr {
		e := base(s)
		defer e.Release()
		return s.NewProduct().Pow(e, value.Of(p)).Expr()
	}
}

func bExp(arg build) build {
	return func(s *Session) Expr {
		e := arg(s)
		defer e.Release()
		return s.NewProduct().Exp(value.One(), e).Expr()
	}
}

func bLog(arg build) build {
	return func(s *Session) Expr {
		e := arg(s)
		defer e.Release()
		return s.NewSum().AddLog(value.One(), e).Expr()
	}
}

func bCall(name string, args ...build) build {
	return func(s *Session) Expr {
		es := make([]Expr, len(args))
		for i, a := range args {
			es[i] = a(s)
		}
		defer func() {
			for _, e := range es {
				e.Release()
			}
		}()
		return s.Apply(name, es...)
	}
}
